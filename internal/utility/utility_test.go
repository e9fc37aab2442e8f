package utility

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestCreateAndParseToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	token, err := CreateToken("secret", JwtToken{UserID: "u1", OrganizationID: "o1", Role: "admin"}, now, 2*time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "o1", claims.OrganizationID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, now.Unix(), claims.IssuedAt)
	assert.Equal(t, now.Add(2*time.Hour).Unix(), claims.ExpiresAt)
	assert.Len(t, claims.RandomNumber, 8)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrTokenMalformed, "sai secret phải bị từ chối")

	_, err = ParseToken("secret", "abc.def.ghi")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = CreateToken("", JwtToken{UserID: "u1"}, now, time.Hour)
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"0912 345 678":    "+84912345678",
		"+84 912-345-678": "+84912345678",
		"0084912345678":   "+84912345678",
		"84912345678":     "+84912345678",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in, "84"), in)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(50*time.Millisecond, 0)
	defer c.Stop()

	c.Set("lb:c1:all", 1)
	c.Set("lb:c1:north", 2)
	c.Set("lb:c2:all", 3)

	v, ok := c.Get("lb:c1:all")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	assert.Equal(t, 2, c.DeletePrefix("lb:c1:"))
	_, ok = c.Get("lb:c1:north")
	assert.False(t, ok)

	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get("lb:c2:all")
	assert.False(t, ok, "item hết hạn không được trả về")
}

func TestStringArray2ObjectIDArray(t *testing.T) {
	ids := StringArray2ObjectIDArray([]string{"64b7f0a2c3d4e5f6a7b8c9d0", "bad"})
	require.Len(t, ids, 1)
	assert.Equal(t, "64b7f0a2c3d4e5f6a7b8c9d0", ids[0].Hex())
	assert.True(t, String2ObjectID("xyz").IsZero())
}

func TestSendCSV(t *testing.T) {
	var ctx fasthttp.RequestCtx
	SendCSV(&ctx, "bảng xếp hạng.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "rank,user\n1,Lan\n")
		return err
	})

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "text/csv; charset=utf-8", string(ctx.Response.Header.ContentType()))
	disposition := string(ctx.Response.Header.Peek("Content-Disposition"))
	assert.True(t, strings.HasPrefix(disposition, "attachment;"))
	assert.Contains(t, disposition, "UTF-8''b%E1%BA%A3ng")
	assert.Equal(t, "rank,user\n1,Lan\n", string(ctx.Response.Body()))
}
