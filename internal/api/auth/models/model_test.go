package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpiry(t *testing.T) {
	issued := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := Session{IssuedAt: issued, ExpiresAt: issued.Add(24 * time.Hour)}

	assert.False(t, s.Expired(issued))
	assert.Equal(t, 24*time.Hour, s.Remaining(issued))
	assert.False(t, s.Expired(issued.Add(23*time.Hour)))
	assert.True(t, s.Expired(issued.Add(24*time.Hour)), "đúng thời điểm hết hạn coi như đã hết")
	assert.Equal(t, time.Duration(0), s.Remaining(issued.Add(30*time.Hour)))
}

func TestUserHierarchy(t *testing.T) {
	u := User{RegionHierarchy: []string{"r1", "c1", "b2"}}
	assert.Equal(t, "b2", u.LeafNodeID())
	assert.True(t, u.BelongsTo("c1"))
	assert.False(t, u.BelongsTo("c2"))
	assert.Equal(t, "", (&User{}).LeafNodeID())

	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleEmployee}).IsAdmin())
}
