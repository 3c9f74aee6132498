package diag

import (
	"sort"
	"unicode/utf8"
)

// Position is a zero-based line and column. Column counts bytes for
// terminal output and UTF-16 code units for editors.
type Position struct {
	Line   int
	Column int
}

// LineIndex maps byte offsets in one source text to positions.
type LineIndex struct {
	src    string
	starts []int
}

// NewLineIndex indexes the line starts of src.
func NewLineIndex(src string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{src: src, starts: starts}
}

// Lines returns the number of lines.
func (li *LineIndex) Lines() int { return len(li.starts) }

// Line returns the text of line i without its line terminator.
func (li *LineIndex) Line(i int) string {
	start := li.starts[i]
	end := len(li.src)
	if i+1 < len(li.starts) {
		end = li.starts[i+1] - 1
	}
	if end > start && li.src[end-1] == '\r' {
		end--
	}
	return li.src[start:end]
}

func (li *LineIndex) clamp(offset int) int {
	return max(0, min(offset, len(li.src)))
}

func (li *LineIndex) line(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
}

// Position returns the line and byte column of offset.
func (li *LineIndex) Position(offset int) Position {
	offset = li.clamp(offset)
	line := li.line(offset)
	return Position{Line: line, Column: offset - li.starts[line]}
}

// UTF16Position returns the line and UTF-16 column of offset, as used by the
// language server protocol.
func (li *LineIndex) UTF16Position(offset int) Position {
	offset = li.clamp(offset)
	line := li.line(offset)
	col := 0
	for _, r := range li.src[li.starts[line]:offset] {
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}

// Offset converts a UTF-16 position back to a byte offset. Positions past
// the end of a line clamp to the line end.
func (li *LineIndex) Offset(p Position) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(li.starts) {
		return len(li.src)
	}
	text := li.Line(p.Line)
	col, i := 0, 0
	for i < len(text) && col < p.Column {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
		i += size
	}
	return li.starts[p.Line] + i
}
