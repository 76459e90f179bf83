// Package loc tracks source positions as the lexer, parser and type
// checker advance over a file. It is consumed, not produced, by this
// core, but is kept alongside the IR since every Tac carries one.
package loc

// Loc is a half-open span in source text: a column, a line, and a
// length in columns. true_col/true_length mirror col/length in display
// cells, so double-width runes don't throw off caret alignment in
// upstream diagnostics.
type Loc struct {
	Col    int
	Line   int
	Length int

	TrueCol    int
	TrueLength int

	onMultipleLines bool
}

// New returns the zero-value starting location: line 1, column 0.
func New() Loc {
	return Loc{Line: 1}
}

// At builds a Loc with true_col/true_length defaulting to col/length.
func At(col, line, length int) Loc {
	return Loc{
		Col: col, Line: line, Length: length,
		TrueCol: col, TrueLength: length,
	}
}

// Copy returns a value copy; Loc has no pointer fields so this exists
// only to make call sites self-documenting where a mutation follows.
func (l Loc) Copy() Loc {
	return l
}

// Advance grows the current span by one character of the given display
// width (1 for most runes, 2 for e.g. CJK/emoji).
func (l *Loc) Advance(charSize int) {
	l.Length++
	l.TrueLength += charSize
}

// Newline resets column tracking at the start of a new source line.
func (l *Loc) Newline() {
	l.Col = 0
	l.Line++
	l.TrueCol = 0
}

// Sync advances the column past the current span and zeroes its length,
// readying the Loc to track the next lexeme.
func (l *Loc) Sync() {
	l.Col += l.Length
	l.Length = 0

	l.TrueCol += l.TrueLength
	l.TrueLength = 0
}

// InBetween, for two locations on the same line, returns a Loc whose
// column is midway between a's and b's and whose length is the column
// distance from a to b. When the lines differ it returns a one-column
// Loc just after a's column, on a's line.
func InBetween(a, b Loc) Loc {
	if a.Line == b.Line {
		return Loc{
			Col:        (a.Col + b.Col) / 2,
			Line:       a.Line,
			Length:     b.Col - a.Col,
			TrueCol:    (a.TrueCol + b.TrueCol) / 2,
			TrueLength: b.TrueCol - a.TrueCol,
		}
	}

	return Loc{
		Col:        a.Col + 1,
		Line:       a.Line,
		Length:     1,
		TrueCol:    a.TrueCol + 1,
		TrueLength: 1,
	}
}

// RightAfter returns a one-column Loc immediately following other.
func RightAfter(other Loc) Loc {
	return Loc{
		Col:        other.Col + other.Length,
		Line:       other.Line,
		Length:     1,
		TrueCol:    other.TrueCol + other.TrueLength,
		TrueLength: 1,
	}
}

// UnionHull combines l and other into one Loc. On one line it starts at
// the smaller column and ends where the Loc with the larger column
// ends. On different lines it returns whichever Loc is already marked
// as multi-line, or else the one on the earlier line, marked as
// multi-line. Used by interpolation lowering to give synthesized Concat
// nodes a sensible combined location.
func (l Loc) UnionHull(other Loc) Loc {
	if l.Line != other.Line {
		if l.onMultipleLines {
			return l
		}
		if other.onMultipleLines {
			return other
		}

		earliest := l
		if other.Line < l.Line {
			earliest = other
		}
		earliest.onMultipleLines = true
		return earliest
	}

	maxLoc := l
	if other.Col > l.Col {
		maxLoc = other
	}

	minCol, maxCol := minInt(l.Col, other.Col), maxInt(l.Col, other.Col)
	minTrueCol, maxTrueCol := minInt(l.TrueCol, other.TrueCol), maxInt(l.TrueCol, other.TrueCol)

	return Loc{
		Col:        minCol,
		Line:       l.Line,
		Length:     maxCol - minCol + maxLoc.Length,
		TrueCol:    minTrueCol,
		TrueLength: maxTrueCol - minTrueCol + maxLoc.TrueLength,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
