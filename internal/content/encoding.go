package content

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// textEncoding pairs a WHATWG encoding label with its decoder. A nil impl
// means the payload is already UTF-8 and only needs invalid-sequence repair.
type textEncoding struct {
	name string
	impl encoding.Encoding
}

func (e textEncoding) decode(data []byte) (string, error) {
	if e.impl == nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
	}
	decoded, err := e.impl.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// detectEncoding picks the decoder for a text preview: a recognised
// caller-supplied label wins, then a BOM, then valid UTF-8, then the
// windows-1252 fallback.
func detectEncoding(sample []byte, label string) textEncoding {
	if label != "" {
		if enc, err := htmlindex.Get(label); err == nil {
			name, err := htmlindex.Name(enc)
			if err == nil {
				return textEncoding{name: name, impl: enc}
			}
		}
	}

	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return textEncoding{name: "utf-8", impl: unicode.UTF8BOM}
	case bytes.HasPrefix(sample, bomUTF16LE):
		return textEncoding{
			name: "utf-16le",
			impl: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
		}
	case bytes.HasPrefix(sample, bomUTF16BE):
		return textEncoding{
			name: "utf-16be",
			impl: unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
		}
	}

	if utf8.Valid(sample) {
		return textEncoding{name: "utf-8"}
	}
	return textEncoding{name: "windows-1252", impl: charmap.Windows1252}
}
