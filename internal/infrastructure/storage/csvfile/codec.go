package csvfile

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// EscapeField quotes s when it is empty or contains a comma, a double quote
// or a line break. Embedded quotes are doubled.
func EscapeField(s string) string {
	if s != "" && !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// UnescapeField reverses EscapeField: one pair of wrapping quotes is removed
// and doubled quotes collapse to one. Unwrapped input is returned unchanged.
func UnescapeField(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
}

// SplitRecord splits one logical record into unescaped fields. Commas inside
// a quoted span do not separate fields.
func SplitRecord(record string) []string {
	raw := splitRaw(record)
	for i, f := range raw {
		raw[i] = UnescapeField(f)
	}
	return raw
}

// splitRaw splits on unquoted commas and keeps every quote character, so each
// field can be unescaped on its own.
func splitRaw(record string) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(record); i++ {
		c := record[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(record) && record[i+1] == '"':
			field.WriteString(`""`)
			i++
		case c == '"':
			inQuotes = !inQuotes
			field.WriteByte(c)
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, field.String())
}

// quoteOpen reports whether s ends inside a quoted span.
func quoteOpen(s string) bool {
	inQuotes := false
	for i := 0; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		if inQuotes && i+1 < len(s) && s[i+1] == '"' {
			i++
			continue
		}
		inQuotes = !inQuotes
	}
	return inQuotes
}

// recordReader yields logical records: a quoted field may carry line breaks,
// so one record can span several physical lines.
type recordReader struct {
	r    *bufio.Reader
	line int
}

func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{r: bufio.NewReader(r)}
}

// next returns the next record without its line terminator, or io.EOF.
// A CR before the newline belongs to the terminator only where the record
// ends; inside a quoted field it is data. A quote left open at end of input
// closes the record.
func (rr *recordReader) next() (string, error) {
	var (
		b       strings.Builder
		started bool
	)
	for {
		line, err := rr.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		eof := err != nil
		if eof && line == "" {
			if started {
				return strings.TrimSuffix(b.String(), "\r"), nil
			}
			return "", io.EOF
		}

		rr.line++
		line = strings.TrimSuffix(line, "\n")

		if !started && strings.HasPrefix(line, "#") {
			return strings.TrimSuffix(line, "\r"), nil
		}
		if started {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		started = true

		if eof || !quoteOpen(b.String()) {
			return strings.TrimSuffix(b.String(), "\r"), nil
		}
	}
}
