package registry

import (
	"errors"
	"sync"
	"testing"

	"incentive_hub/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry[int]()

	isNew, err := r.Register("a", 1)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = r.Register("a", 2)
	require.NoError(t, err)
	assert.False(t, isNew, "đăng ký lại phải ghi đè")

	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, err = r.Register("", 3)
	assert.ErrorIs(t, err, common.ErrRequiredField)

	_, err = r.MustGet("missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	r := NewRegistry[string]()
	var calls int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.GetOrCreate("svc", func() (string, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return "value", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "value", v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls, "creator chỉ được gọi một lần")

	_, err := r.GetOrCreate("bad", func() (string, error) { return "", errors.New("boom") })
	assert.Error(t, err)
	_, ok := r.Get("bad")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	r := NewRegistry[int]()
	_, _ = r.Register("b", 2)
	_, _ = r.Register("a", 1)
	assert.Equal(t, []string{"a", "b"}, r.Names())

	deleted, err := r.Clear("a", func(int) error { return errors.New("cleanup") })
	assert.Error(t, err)
	assert.False(t, deleted)

	deleted, err = r.Clear("a", nil)
	assert.NoError(t, err)
	assert.True(t, deleted)

	count, err := r.ClearAll(nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, r.Names())
}
