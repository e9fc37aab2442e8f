package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type indexedModel struct {
	ID        string `bson:"_id"`
	Phone     string `bson:"phone" index:"unique,sparse"`
	OrgID     string `bson:"organizationId" index:"single;compound:org_status"`
	Status    string `bson:"status" index:"compound:org_status"`
	Code      string `bson:"code" index:"compound:org_code_unique"`
	OrgID2    string `bson:"orgRef,omitempty" index:"compound:org_code_unique"`
	CreatedAt int64  `bson:"createdAt" index:"single,order:-1"`
	ExpiresAt int64  `bson:"expiresAt" index:"ttl:3600"`
	Name      string `bson:"name" index:"text"`
	Ignored   string `bson:"-" index:"single"`
}

func TestParseIndexTag(t *testing.T) {
	got := parseIndexTag("single,order:-1; unique,sparse ;")
	assert.Equal(t, []map[string]string{
		{"single": "", "order": "-1"},
		{"unique": "", "sparse": ""},
	}, got)
}

func TestPlanIndexes(t *testing.T) {
	specs, err := planIndexes(&indexedModel{})
	require.NoError(t, err)

	byName := map[string]indexSpec{}
	for _, s := range specs {
		byName[s.Name] = s
	}

	phone := byName["phone_unique"]
	assert.True(t, phone.Unique)
	assert.True(t, phone.Sparse)

	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, byName["createdAt_single"].Keys)
	assert.Equal(t, bson.D{{Key: "organizationId", Value: 1}, {Key: "status", Value: 1}}, byName["org_status"].Keys)
	assert.False(t, byName["org_status"].Unique)
	assert.True(t, byName["org_code_unique"].Unique)
	assert.Equal(t, bson.D{{Key: "code", Value: 1}, {Key: "orgRef", Value: 1}}, byName["org_code_unique"].Keys)
	require.NotNil(t, byName["expiresAt_ttl"].TTL)
	assert.Equal(t, int32(3600), *byName["expiresAt_ttl"].TTL)
	assert.True(t, byName["name_text"].IsText)
	_, ok := byName["-_single"]
	assert.False(t, ok, "field bson:\"-\" không được tạo index")
}

func TestSameIndex(t *testing.T) {
	spec := indexSpec{Name: "phone_unique", Keys: bson.D{{Key: "phone", Value: 1}}, Unique: true}
	assert.True(t, sameIndex(bson.M{"key": bson.M{"phone": int32(1)}, "unique": true}, spec))
	assert.False(t, sameIndex(bson.M{"key": bson.M{"phone": int32(1)}}, spec), "index cũ không unique")
	assert.False(t, sameIndex(bson.M{"key": bson.M{"phone": int32(-1)}, "unique": true}, spec))
}
