package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"
)

const indent = "  "

// Pretty writes each value as indented JSON followed by a newline, in order.
// Map keys come out sorted; HTML characters and U+2028/U+2029 are written as-is.
func Pretty(w io.Writer, values ...any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)
	for i, v := range values {
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode document %d: %w", i, err)
		}
	}
	if _, err := w.Write(unescapeLineSeparators(buf.Bytes())); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}
	return nil
}

// unescapeLineSeparators undoes the \u2028 and \u2029 escapes that
// encoding/json applies regardless of SetEscapeHTML. Every backslash in
// encoder output starts a two-byte escape, so pairs are skipped whole.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 == len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "2028":
				out = utf8.AppendRune(out, '\u2028')
				i += 5
				continue
			case "2029":
				out = utf8.AppendRune(out, '\u2029')
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}
