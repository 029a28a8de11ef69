package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		raw, err := GenerateKey()
		require.NoError(t, err)
		assert.Len(t, raw, 44)
		assert.True(t, WellFormed(raw), raw)
		assert.False(t, seen[raw], "duplicate key")
		seen[raw] = true
	}
}

func TestWellFormed(t *testing.T) {
	assert.False(t, WellFormed(""))
	assert.False(t, WellFormed("sk_live_abc"))
	assert.False(t, WellFormed("sck_short"))
	assert.False(t, WellFormed("sck_"+"!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!"))
	assert.True(t, WellFormed("sck_"+"abcdefghijABCDEFGHIJ0123456789abcdefghij"))
}

func TestHashKeyIsStableHex(t *testing.T) {
	h := HashKey("sck_test")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashKey("sck_test"))
	assert.NotEqual(t, h, HashKey("sck_other"))
}

func TestDisplayPrefix(t *testing.T) {
	assert.Equal(t, "sck_abcdefgh", DisplayPrefix("sck_abcdefghijklmnop"))
	assert.Equal(t, "sck_", DisplayPrefix("sck_"))
}

func TestAPIKeyScopesAndExpiry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	k := &APIKey{Scopes: []Scope{ScopeReadCategories}}

	assert.True(t, k.HasScope(ScopeReadCategories))
	assert.False(t, k.HasScope(ScopeReadSizeCharts))
	assert.False(t, k.IsExpired(now))

	k.ExpiresAt = &past
	assert.True(t, k.IsExpired(now))

	k.ExpiresAt = &now
	assert.True(t, k.IsExpired(now), "expiry is inclusive")
}

func TestCreateAPIKeyRequestValidate(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	ok := CreateAPIKeyRequest{Name: "shop", Scopes: []Scope{ScopeReadSizeCharts}, ExpiresAt: &future}
	assert.NoError(t, ok.Validate())

	assert.Error(t, CreateAPIKeyRequest{Scopes: []Scope{ScopeReadSizeCharts}}.Validate())
	assert.Error(t, CreateAPIKeyRequest{Name: "shop"}.Validate())
	assert.Error(t, CreateAPIKeyRequest{Name: "shop", Scopes: []Scope{"write:everything"}}.Validate())
	assert.Error(t, CreateAPIKeyRequest{Name: "shop", Scopes: []Scope{ScopeReadLabels}, ExpiresAt: &past}.Validate())
}

func TestKeyContext(t *testing.T) {
	_, ok := KeyFromContext(context.Background())
	assert.False(t, ok)

	k := &APIKey{Name: "x"}
	got, ok := KeyFromContext(WithKey(context.Background(), k))
	require.True(t, ok)
	assert.Same(t, k, got)
}
