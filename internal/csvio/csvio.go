// Package csvio đọc/ghi file CSV do người dùng tải lên: nhận diện BOM UTF-8/UTF-16,
// fallback Windows-1252 cho file xuất từ Excel, chuẩn hoá NFC cho header.
package csvio

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tên encoding trả về từ Decode
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1252 = "windows-1252"
)

// Decode chuyển nội dung file về UTF-8 và trả về tên encoding đã nhận diện.
func Decode(data []byte) (string, string, error) {
	var enc encoding.Encoding
	name := EncodingUTF8

	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), EncodingUTF8, nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		enc, name = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), EncodingUTF16LE
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		enc, name = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), EncodingUTF16BE
	case utf8.Valid(data):
		return string(data), EncodingUTF8, nil
	default:
		enc, name = charmap.Windows1252, EncodingWindows1252
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", name, err
	}
	return string(out), name, nil
}

// NewReader tạo csv.Reader chấp nhận số cột khác nhau giữa các dòng
func NewReader(text string) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	return r
}

// ReadAll decode rồi đọc toàn bộ bản ghi, bỏ các dòng trống hoàn toàn
func ReadAll(data []byte) ([][]string, string, error) {
	text, enc, err := Decode(data)
	if err != nil {
		return nil, enc, err
	}
	records, err := NewReader(text).ReadAll()
	if err != nil {
		return nil, enc, err
	}
	out := records[:0]
	for _, rec := range records {
		if !IsBlank(rec) {
			out = append(out, rec)
		}
	}
	return out, enc, nil
}

// IsBlank true nếu mọi ô đều rỗng sau khi trim
func IsBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// NormalizeKey chuẩn hoá tên cột / tên node để so khớp: NFC, trim, lower-case
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// CleanCell chuẩn hoá NFC và trim một ô dữ liệu
func CleanCell(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Writer ghi CSV với BOM UTF-8 để Excel mở đúng tiếng Việt
type Writer struct {
	*csv.Writer
}

// NewWriter tạo writer; withBOM = true ghi BOM UTF-8 trước
func NewWriter(w io.Writer, withBOM bool) (*Writer, error) {
	if withBOM {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return nil, err
		}
	}
	return &Writer{Writer: csv.NewWriter(w)}, nil
}
