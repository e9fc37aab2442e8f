package csvio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestDecode(t *testing.T) {
	t.Run("utf-8 có BOM", func(t *testing.T) {
		text, enc, err := Decode(append([]byte{0xEF, 0xBB, 0xBF}, []byte("Miền Bắc")...))
		require.NoError(t, err)
		assert.Equal(t, EncodingUTF8, enc)
		assert.Equal(t, "Miền Bắc", text)
	})

	t.Run("utf-16le có BOM", func(t *testing.T) {
		encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("user_id,region"))
		require.NoError(t, err)
		text, enc, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, EncodingUTF16LE, enc)
		assert.Equal(t, "user_id,region", text)
	})

	t.Run("windows-1252", func(t *testing.T) {
		// 0xE9 = é trong Windows-1252, không phải UTF-8 hợp lệ
		text, enc, err := Decode([]byte{'C', 'a', 'f', 0xE9})
		require.NoError(t, err)
		assert.Equal(t, EncodingWindows1252, enc)
		assert.Equal(t, "Café", text)
	})
}

func TestReadAllSkipsBlankLines(t *testing.T) {
	records, _, err := ReadAll([]byte("a,b\n,\n\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, records)
}

func TestNormalizeKey(t *testing.T) {
	// "ề" dạng tổ hợp (NFD) phải khớp dạng dựng sẵn (NFC)
	assert.Equal(t, NormalizeKey("Mi\u00ea\u0300n"), NormalizeKey(" MIỀN "))
}

func TestWriterBOM(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, true)
	require.NoError(t, err)
	require.NoError(t, w.Write([]string{"Region", "Cluster"}))
	w.Flush()
	assert.Equal(t, "\xEF\xBB\xBFRegion,Cluster\n", buf.String())
}
