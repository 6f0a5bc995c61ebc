package entity

import "time"

// Acciones registradas en la bitácora.
const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// Algoritmos de compresión de los snapshots.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// AuditLog entrada de bitácora de solo escritura. OldValues/NewValues son JSON,
// comprimidos con zstd cuando Compression lo indica.
type AuditLog struct {
	ID          string
	CompanyID   string
	Action      string
	EntityType  string
	EntityID    string
	OldValues   []byte
	NewValues   []byte
	Compression string
	ActorID     string
	CreatedAt   time.Time
}
