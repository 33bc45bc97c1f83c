package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "a@example.com", NormalizeIdentity("  A@Example.COM "))
	assert.Equal(t, "+6281234567890", NormalizeIdentity(" +6281234567890"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, IdentityKindEmail, KindOf("a@example.com"))
	assert.Equal(t, IdentityKindPhone, KindOf("+6281234567890"))
	assert.Equal(t, IdentityKindUnknown, KindOf("gopher"))
	assert.Equal(t, "phone", IdentityKindPhone.String())
}

func TestChallenge_Expired(t *testing.T) {
	created := time.Unix(1_700_000_000, 0)
	c := Challenge{CreatedAt: created}
	ttl := 300 * time.Second

	assert.False(t, c.Expired(created.Add(ttl), ttl))
	assert.True(t, c.Expired(created.Add(ttl+time.Second), ttl))
}
