package logger

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseFilter(t *testing.T) {
	assert.Nil(t, parseFilter(""))
	assert.Nil(t, parseFilter("*"))
	assert.Nil(t, parseFilter("campaign, *"))
	assert.Equal(t, map[string]bool{"campaign": true, "auth": true}, parseFilter(" Campaign ,auth,"))
}

func TestFilterAndAsyncHook(t *testing.T) {
	out := &syncBuffer{}
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.AddHook(NewFilterHook(&LogConfig{FilterModules: "campaign", FilterLogTypes: "info,error"}))
	hook := NewAsyncHook([]io.Writer{out}, 10)
	l.AddHook(hook)

	l.WithField("module", "campaign").Info("kích hoạt chiến dịch")
	l.WithField("module", "auth").Info("đăng nhập")
	l.WithField("module", "campaign").Warn("cảnh báo bị lọc")
	l.Error("lỗi không có module")

	// Close đợi ghi hết entry trong channel
	assert.NoError(t, hook.Close())

	got := out.String()
	assert.Contains(t, got, "kích hoạt chiến dịch")
	assert.Contains(t, got, "lỗi không có module")
	assert.NotContains(t, got, "đăng nhập", "module auth phải bị lọc")
	assert.NotContains(t, got, "cảnh báo bị lọc", "level warning phải bị lọc")
	assert.NotContains(t, got, filteredKey)

	// Sau khi Close, entry được ghi trực tiếp
	l.WithField("module", "campaign").Info("sau khi đóng")
	assert.Contains(t, out.String(), "sau khi đóng")
	assert.NoError(t, hook.Close(), "Close lần hai không lỗi")
}
