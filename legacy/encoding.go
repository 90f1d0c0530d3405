package legacy

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// DecodeLatin1 reads a raw report dump and converts it to UTF-8. Report
// files lifted off the mainframe transfer path arrive as ISO-8859-1; bytes
// above 0x7F in name fields would otherwise corrupt line slicing.
func DecodeLatin1(r io.Reader) (string, error) {
	decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(r))
	if err != nil {
		return "", fmt.Errorf("decode report text: %w", err)
	}
	return string(decoded), nil
}
