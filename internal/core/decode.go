package core

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeContent turns uploaded bytes into NFC-normalized UTF-8 text.
//
// A UTF-8 BOM is stripped, UTF-16 with a BOM is transcoded, and content that
// is not valid UTF-8 is read as Windows-1252 (what spreadsheet tools on
// Windows write for "CSV"). Content that still contains NUL bytes is binary
// and rejected with ErrUnreadableFile.
func DecodeContent(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var dec *encoding.Decoder
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		raw = raw[len(bomUTF8):]
	case bytes.HasPrefix(raw, bomUTF16LE):
		dec = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	case bytes.HasPrefix(raw, bomUTF16BE):
		dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	case !utf8.Valid(raw):
		dec = charmap.Windows1252.NewDecoder()
	}

	if dec != nil {
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		raw = out
	}

	if bytes.IndexByte(raw, 0) >= 0 {
		return "", ErrUnreadableFile
	}

	return norm.NFC.String(string(raw)), nil
}
