package lex

// TokenID indexes a token in a Tokens slice.
type TokenID uint32

// Span is a half-open byte range into the source text.
type Span struct {
	Start uint32 `json:"start" yaml:"start"`
	End   uint32 `json:"end" yaml:"end"`
}

// Len returns the number of bytes covered.
func (s Span) Len() int {
	return int(s.End - s.Start)
}

// Join returns the smallest span covering s and other.
func (s Span) Join(other Span) Span {
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Token is a single lexeme. Its text is not stored; it is recovered from the
// source by Span.
type Token struct {
	Start uint32 `json:"start" yaml:"start"`
	Len   uint16 `json:"len" yaml:"len"`
	Kind  Kind   `json:"kind" yaml:"kind"`
}

// Span returns the byte range of the token.
func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.Start + uint32(t.Len)}
}

// Tokens is the token stream of one source file. The last token is always Eof.
type Tokens []Token

// Get returns the token with the given id.
func (ts Tokens) Get(id TokenID) Token {
	return ts[id]
}

// Text returns the source text of a token.
func (ts Tokens) Text(src string, id TokenID) string {
	sp := ts[id].Span()
	return src[sp.Start:sp.End]
}
