package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestKeyAndEmpty(t *testing.T) {
	user, _ := primitive.ObjectIDFromHex("65f000000000000000000001")
	campaign, _ := primitive.ObjectIDFromHex("65f000000000000000000002")
	org := primitive.NewObjectID()

	assert.Equal(t, "65f000000000000000000001_65f000000000000000000002", Key(user, campaign))

	p := Empty(org, campaign, user)
	assert.Equal(t, Key(user, campaign), p.ID)
	assert.Equal(t, campaign, p.CampaignKey())
	assert.NotNil(t, p.Achievements)
	assert.Equal(t, 0.0, p.Total("sku-a"))
}
