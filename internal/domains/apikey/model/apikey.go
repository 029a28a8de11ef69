package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// SCOPES
// =====================================================

type Scope string

const (
	ScopeReadSizeCharts   Scope = "read:size-charts"
	ScopeReadCategories   Scope = "read:categories"
	ScopeReadLabels       Scope = "read:labels"
	ScopeReadInstructions Scope = "read:instructions"
)

var AllScopes = []Scope{
	ScopeReadSizeCharts,
	ScopeReadCategories,
	ScopeReadLabels,
	ScopeReadInstructions,
}

func (s Scope) Valid() bool {
	for _, v := range AllScopes {
		if v == s {
			return true
		}
	}
	return false
}

// =====================================================
// ENTITY
// =====================================================

// APIKey is a stored credential. The raw key is never persisted.
type APIKey struct {
	ID         uuid.UUID
	Name       string
	KeyHash    string
	KeyPrefix  string
	Scopes     []Scope
	IsActive   bool
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

func (k *APIKey) HasScope(scope Scope) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IsExpired reports whether the key expired at or before now.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}

// ScopeStrings is the text[] form used by the repository.
func (k *APIKey) ScopeStrings() []string {
	out := make([]string, len(k.Scopes))
	for i, s := range k.Scopes {
		out[i] = string(s)
	}
	return out
}

// =====================================================
// KEY MATERIAL
// =====================================================

const (
	KeyPrefix     = "sck_"
	keyBodyLength = 40
	// DisplayPrefixLength is how much of the raw key is kept for display.
	DisplayPrefixLength = 12
)

const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateKey returns a fresh raw key of the form sck_<40 base62 chars>.
func GenerateKey() (string, error) {
	var sb strings.Builder
	sb.Grow(len(KeyPrefix) + keyBodyLength)
	sb.WriteString(KeyPrefix)

	buf := make([]byte, keyBodyLength*2)
	for sb.Len() < len(KeyPrefix)+keyBodyLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate api key: %w", err)
		}
		for _, b := range buf {
			// 248 = 4*62, rejecting above it keeps the alphabet uniform
			if b >= 248 {
				continue
			}
			sb.WriteByte(base62[int(b)%62])
			if sb.Len() == len(KeyPrefix)+keyBodyLength {
				break
			}
		}
	}
	return sb.String(), nil
}

// HashKey returns the hex SHA-256 digest used for lookup.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// DisplayPrefix returns the part of a raw key safe to show in listings.
func DisplayPrefix(raw string) string {
	if len(raw) <= DisplayPrefixLength {
		return raw
	}
	return raw[:DisplayPrefixLength]
}

// WellFormed reports whether raw looks like a key this service issued.
func WellFormed(raw string) bool {
	if !strings.HasPrefix(raw, KeyPrefix) || len(raw) != len(KeyPrefix)+keyBodyLength {
		return false
	}
	for i := len(KeyPrefix); i < len(raw); i++ {
		if strings.IndexByte(base62, raw[i]) < 0 {
			return false
		}
	}
	return true
}
