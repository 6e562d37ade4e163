package apikey

import (
	"time"

	model "quicker-admin/models/apikey"
)

type CreateKeyRequest struct {
	Name string `json:"name" form:"name" validate:"required,max=100"`
}

type KeyResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	KeyPrefix  string `json:"key_prefix"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

// CreatedKeyResponse carries the raw key. It is only ever sent once.
type CreatedKeyResponse struct {
	KeyResponse
	Key string `json:"key"`
}

func NewKeyResponse(k *model.ApiKey) KeyResponse {
	resp := KeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		IsActive:  k.IsActive,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}
	if k.LastUsedAt != nil {
		resp.LastUsedAt = k.LastUsedAt.Format(time.RFC3339)
	}
	return resp
}
