package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEmptyOrganization(t *testing.T) {
	id := primitive.NewObjectID()
	org := Empty(id)
	assert.Equal(t, id, org.ID)
	assert.Len(t, org.HierarchyLevels, 4)
	assert.NotNil(t, org.HierarchyLevels[3].Items)
	assert.NotNil(t, org.SKUs)
	assert.NotNil(t, org.Designations)
}

func TestLookups(t *testing.T) {
	org := &Organization{
		SKUs:         []SKU{{ID: "s1", Code: "COLA"}, {ID: "s2", Code: "Tea"}},
		Designations: []Designation{{ID: "d1", Name: "Sales Rep"}},
	}
	s, ok := org.FindSKUByCode("tea")
	assert.True(t, ok)
	assert.Equal(t, "s2", s.ID)
	_, ok = org.FindSKU("s3")
	assert.False(t, ok)
	assert.True(t, org.HasDesignation("sales rep"))
	assert.False(t, org.HasDesignation("Manager"))
}
