package statement

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decode converts raw statement bytes to UTF-8. A byte order mark selects the
// encoding when present. Otherwise the input is read as UTF-8 if it is valid
// UTF-8 and as Windows-1252 if it is not, which covers the exports of most
// banks that do not emit UTF-8.
func decode(data []byte) ([]byte, error) {
	var fallback encoding.Encoding = unicode.UTF8
	if !utf8.Valid(data) {
		fallback = charmap.Windows1252
	}

	r := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(fallback.NewDecoder()))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode: transforming input: %w", err)
	}
	return out, nil
}
