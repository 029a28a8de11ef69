package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// =====================================================
// REQUEST DTOs
// =====================================================

type CreateAPIKeyRequest struct {
	Name      string     `json:"name"`
	Scopes    []Scope    `json:"scopes"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (r CreateAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Scopes, validation.Required, validation.Each(validation.By(validScope))),
		validation.Field(&r.ExpiresAt, validation.By(inFuture)),
	)
}

type UpdateAPIKeyRequest struct {
	IsActive *bool `json:"isActive"`
}

func (r UpdateAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IsActive, validation.NotNil),
	)
}

func validScope(value interface{}) error {
	s, _ := value.(Scope)
	if !s.Valid() {
		return validation.NewError("validation_invalid_scope", "unknown scope")
	}
	return nil
}

func inFuture(value interface{}) error {
	var t *time.Time
	switch v := value.(type) {
	case *time.Time:
		t = v
	case time.Time:
		t = &v
	}
	if t != nil && !t.After(time.Now()) {
		return validation.NewError("validation_past_expiry", "must be in the future")
	}
	return nil
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type APIKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"keyPrefix"`
	Scopes     []Scope    `json:"scopes"`
	IsActive   bool       `json:"isActive"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CreateAPIKeyResponse is the only place the raw key is ever returned.
type CreateAPIKeyResponse struct {
	APIKey APIKeyResponse `json:"apiKey"`
	Key    string         `json:"key"`
}

func ToResponse(k *APIKey) APIKeyResponse {
	scopes := k.Scopes
	if scopes == nil {
		scopes = []Scope{}
	}
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		KeyPrefix:  k.KeyPrefix,
		Scopes:     scopes,
		IsActive:   k.IsActive,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
		CreatedAt:  k.CreatedAt,
	}
}
