package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	p, l := NormalizePage(0, 0)
	assert.Equal(t, int64(1), p)
	assert.Equal(t, int64(10), l)

	_, l = NormalizePage(2, 5000)
	assert.Equal(t, int64(1000), l)
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5, 6, 7}

	r := Paginate(all, 2, 3)
	assert.Equal(t, []int{4, 5, 6}, r.Items)
	assert.Equal(t, int64(3), r.ItemCount)
	assert.Equal(t, int64(7), r.Total)
	assert.Equal(t, int64(3), r.TotalPage)

	r = Paginate(all, 9, 3)
	assert.Empty(t, r.Items)
	assert.NotNil(t, r.Items)

	r = Paginate([]int{}, 1, 10)
	assert.Equal(t, int64(0), r.TotalPage)
}
