package global

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type validatorSample struct {
	Name  string `validate:"required,no_xss"`
	Code  string `validate:"required,sku_code"`
	Level int    `validate:"hierarchy_level"`
	OrgID string `validate:"object_id"`
}

func TestCustomValidators(t *testing.T) {
	InitValidator()

	valid := validatorSample{Name: "Kem đánh răng", Code: "SKU-001", Level: 2, OrgID: "64b7f0a2c3d4e5f6a7b8c9d0"}
	assert.NoError(t, Validate.Struct(valid))

	cases := map[string]validatorSample{
		"xss":                 {Name: "<script>alert(1)</script>", Code: "A", Level: 1},
		"sku có dấu phẩy":     {Name: "a", Code: "A,B", Level: 1},
		"sku có khoảng trắng": {Name: "a", Code: "A B", Level: 1},
		"level 0":             {Name: "a", Code: "A", Level: 0},
		"level 5":             {Name: "a", Code: "A", Level: 5},
		"objectid sai":        {Name: "a", Code: "A", Level: 1, OrgID: "xyz"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Validate.Struct(c))
		})
	}
}
