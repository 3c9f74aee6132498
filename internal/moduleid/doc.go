/*
Package moduleid provides the canonical identity of a module: a resolved,
normalized source location rendered as a `file://` URI.

Identities are created in exactly two ways. ResolveRoot turns a user-supplied
path into an identity, and ResolveImport turns an import name found in a
parsed module into an identity, either relative to the importing module
(`./vec`, `../lib/mat`) or relative to the standard-library root (`vec`).
Resolution never touches the file system and never fails for import names;
a name that points nowhere still yields an identity, and the failure is
reported later when the source resolver tries to fetch it.
*/
package moduleid
