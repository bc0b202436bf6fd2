package input

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/tendril/pkg/domain"
)

// Reader is a cursor over an immutable command line.
//
// Words are separated by Unicode whitespace. All offsets are byte offsets
// into the original line.
type Reader struct {
	line   string
	cursor int
	end    int
}

// NewReader returns a reader positioned at the start of line.
func NewReader(line string) *Reader {
	return &Reader{line: line, end: len(line)}
}

// Line returns the full line, ignoring any limit.
func (r *Reader) Line() string { return r.line }

// Cursor returns the current byte offset.
func (r *Reader) Cursor() int { return r.cursor }

// Seek moves the cursor to offset, clamped to the readable range.
func (r *Reader) Seek(offset int) {
	r.cursor = max(0, min(offset, r.end))
}

// Consumed returns the text before the cursor.
func (r *Reader) Consumed() string { return r.line[:r.cursor] }

// Remaining returns the readable text after the cursor.
func (r *Reader) Remaining() string { return r.line[r.cursor:r.end] }

// HasNext reports whether a non-whitespace character remains.
func (r *Reader) HasNext() bool {
	return strings.TrimLeftFunc(r.Remaining(), unicode.IsSpace) != ""
}

// Clone returns an independent reader at the same position.
func (r *Reader) Clone() *Reader {
	c := *r
	return &c
}

// Limit returns a reader that sees the line only up to end. The cursor is
// preserved when it lies within the new bound.
func (r *Reader) Limit(end int) *Reader {
	end = max(0, min(end, len(r.line)))
	return &Reader{line: r.line, cursor: min(r.cursor, end), end: end}
}

// SkipWhitespace advances the cursor past any whitespace.
func (r *Reader) SkipWhitespace() {
	for r.cursor < r.end {
		ch, size := utf8.DecodeRuneInString(r.line[r.cursor:r.end])
		if !unicode.IsSpace(ch) {
			return
		}
		r.cursor += size
	}
}

// PeekWord returns the next word without moving the cursor.
func (r *Reader) PeekWord() (string, error) {
	start := r.cursor
	word, err := r.ReadWord()
	r.cursor = start
	return word, err
}

// ReadWord skips leading whitespace and reads a run of non-whitespace characters.
func (r *Reader) ReadWord() (string, error) {
	r.SkipWhitespace()
	if r.cursor >= r.end {
		return "", r.exhausted()
	}
	start := r.cursor
	for r.cursor < r.end {
		ch, size := utf8.DecodeRuneInString(r.line[r.cursor:r.end])
		if unicode.IsSpace(ch) {
			break
		}
		r.cursor += size
	}
	return r.line[start:r.cursor], nil
}

// ReadQuotable reads a single- or double-quoted run, or a plain word when the
// next character is not a quote. Inside quotes a backslash escapes the
// active quote character and itself.
func (r *Reader) ReadQuotable() (string, error) {
	r.SkipWhitespace()
	if r.cursor >= r.end {
		return "", r.exhausted()
	}

	quote := r.line[r.cursor]
	if quote != '"' && quote != '\'' {
		return r.ReadWord()
	}

	start := r.cursor
	r.cursor++

	var sb strings.Builder
	for r.cursor < r.end {
		ch := r.line[r.cursor]
		switch {
		case ch == '\\' && r.cursor+1 < r.end && (r.line[r.cursor+1] == quote || r.line[r.cursor+1] == '\\'):
			sb.WriteByte(r.line[r.cursor+1])
			r.cursor += 2
		case ch == quote:
			r.cursor++
			return sb.String(), nil
		default:
			sb.WriteByte(ch)
			r.cursor++
		}
	}

	r.cursor = start
	return "", &domain.SyntaxError{Reason: domain.MalformedQuote, Consumed: r.Consumed()}
}

// ReadRemaining reads from the first non-whitespace character to the end.
func (r *Reader) ReadRemaining() (string, error) {
	r.SkipWhitespace()
	if r.cursor >= r.end {
		return "", r.exhausted()
	}
	rest := r.line[r.cursor:r.end]
	r.cursor = r.end
	return rest, nil
}

func (r *Reader) exhausted() error {
	return &domain.SyntaxError{
		Reason:   domain.TooFewArguments,
		Consumed: strings.TrimRightFunc(r.Consumed(), unicode.IsSpace),
		Err:      domain.ErrInputExhausted,
	}
}

// Tokenize splits line into words, honouring quotes.
func Tokenize(line string) ([]string, error) {
	r := NewReader(line)
	var out []string
	for r.HasNext() {
		w, err := r.ReadQuotable()
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}
