// SPDX-License-Identifier: EPL-2.0

package sheet

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// decodeText turns raw sheet bytes into text. Sheets come from rippers
// on every platform, so the bytes may be UTF-8, BOM-marked UTF-16, or a
// legacy single-byte encoding. The fallback maps each byte one-to-one
// to a code point (ISO 8859-1), which is reversible and leaves the
// ASCII range — all the command keywords and timestamps — untouched.
func decodeText(b []byte) string {
	if bytes.HasPrefix(b, bomUTF8) {
		return string(b[len(bomUTF8):])
	}

	if bytes.HasPrefix(b, bomUTF16BE) || bytes.HasPrefix(b, bomUTF16LE) {
		endian := unicode.BigEndian
		if b[0] == 0xFF {
			endian = unicode.LittleEndian
		}
		dec := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			return string(out)
		}
	}

	if utf8.Valid(b) {
		return string(b)
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO 8859-1 decodes any byte sequence; unreachable in practice.
		return string(b)
	}
	return string(out)
}
