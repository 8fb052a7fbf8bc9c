package charset

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding detects the encoding of a byte buffer.
// Spreadsheet exports from Mexican suppliers that are not valid UTF-8 are
// almost always Windows-1252 ("Descripción" saved by Excel as ANSI).
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) || utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// StripBOM removes a leading UTF-8 byte order mark
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// Decode converts a byte buffer from the specified encoding to a UTF-8 string.
// Valid UTF-8 input is returned as-is whatever encoding was requested, so a
// provider configured for ANSI that starts exporting UTF-8 keeps working.
func Decode(data []byte, enc Encoding) (string, error) {
	data = StripBOM(data)
	if utf8.Valid(data) {
		return string(data), nil
	}

	var decoder *encoding.Decoder
	switch enc {
	case EncodingISO88591:
		decoder = charmap.ISO8859_1.NewDecoder()
	case EncodingUTF8, EncodingWindows1252, "":
		decoder = charmap.Windows1252.NewDecoder()
	default:
		return "", fmt.Errorf("unsupported encoding: %s", enc)
	}

	out, err := decoder.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s content: %w", enc, err)
	}
	return string(out), nil
}
