package dto

import (
	"encoding/json"
	"time"
)

// AuditLogResponse entrada de bitácora con los snapshots ya descomprimidos.
type AuditLogResponse struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	OldValues  json.RawMessage `json:"old_values,omitempty"`
	NewValues  json.RawMessage `json:"new_values,omitempty"`
	ActorID    string          `json:"actor_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditLogListResponse lista paginada de la bitácora.
type AuditLogListResponse struct {
	Items []AuditLogResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
