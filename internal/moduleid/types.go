package moduleid

// Ext is the source file extension appended to import names that have none.
const Ext = ".adroit"

// ID is the identity of a module. The zero value is not a valid identity.
//
// IDs are comparable and can be used as map keys; two IDs are equal iff they
// denote the same cleaned absolute path.
type ID struct {
	path string
}

// Path returns the absolute file-system path of the module.
func (id ID) Path() string {
	return id.path
}

// IsZero reports whether id is the zero identity.
func (id ID) IsZero() bool {
	return id.path == ""
}
