// Package audit registra en la bitácora cada operación que modifica datos.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// DefaultCompressThreshold tamaño (bytes) a partir del cual los snapshots se comprimen.
const DefaultCompressThreshold = 4 * 1024

// Entry datos de una acción a registrar. Old y New se serializan a JSON; nil = sin snapshot.
type Entry struct {
	CompanyID  string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Old        any
	New        any
}

// Recorder serializa y comprime snapshots y los persiste en el repositorio recibido,
// que puede estar atado a la transacción del llamador.
type Recorder struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
	now       func() time.Time
}

// NewRecorder construye el recorder. threshold <= 0 usa DefaultCompressThreshold.
func NewRecorder(threshold int) (*Recorder, error) {
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("crear encoder zstd: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("crear decoder zstd: %w", err)
	}
	return &Recorder{encoder: encoder, decoder: decoder, threshold: threshold, now: time.Now}, nil
}

// Record construye la entrada y la guarda con repo.
func (r *Recorder) Record(ctx context.Context, repo repository.AuditRepository, e Entry) error {
	oldJSON, err := marshalSnapshot(e.Old)
	if err != nil {
		return fmt.Errorf("audit: serializar old_values: %w", err)
	}
	newJSON, err := marshalSnapshot(e.New)
	if err != nil {
		return fmt.Errorf("audit: serializar new_values: %w", err)
	}

	log := &entity.AuditLog{
		ID:          uuid.New().String(),
		CompanyID:   e.CompanyID,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		OldValues:   oldJSON,
		NewValues:   newJSON,
		Compression: entity.CompressionNone,
		ActorID:     e.ActorID,
		CreatedAt:   r.now().UTC(),
	}
	if len(oldJSON)+len(newJSON) > r.threshold {
		log.OldValues = r.compress(oldJSON)
		log.NewValues = r.compress(newJSON)
		log.Compression = entity.CompressionZstd
	}
	if err := repo.Create(ctx, log); err != nil {
		return fmt.Errorf("audit: guardar entrada: %w", err)
	}
	return nil
}

// Decode devuelve los snapshots JSON de la entrada, descomprimidos si hace falta.
func (r *Recorder) Decode(l *entity.AuditLog) (oldValues, newValues json.RawMessage, err error) {
	if l.Compression != entity.CompressionZstd {
		return l.OldValues, l.NewValues, nil
	}
	if oldValues, err = r.decompress(l.OldValues); err != nil {
		return nil, nil, err
	}
	if newValues, err = r.decompress(l.NewValues); err != nil {
		return nil, nil, err
	}
	return oldValues, newValues, nil
}

func (r *Recorder) compress(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return r.encoder.EncodeAll(b, nil)
}

func (r *Recorder) decompress(b []byte) (json.RawMessage, error) {
	if len(b) == 0 {
		return nil, nil
	}
	out, err := r.decoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("audit: descomprimir snapshot: %w", err)
	}
	return out, nil
}

func marshalSnapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
