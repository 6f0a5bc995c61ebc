package audit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
)

func TestRecorder_SmallSnapshotStaysPlain(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec, err := NewRecorder(0)
	require.NoError(t, err)

	require.NoError(t, rec.Record(ctx, store.Audit(), Entry{
		CompanyID: "c1", ActorID: "u1", Action: entity.AuditCreate,
		EntityType: "payment", EntityID: "p1", New: map[string]string{"amount": "300"},
	}))

	logs, err := store.Audit().List(ctx, "c1", repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.CompressionNone, logs[0].Compression)
	assert.JSONEq(t, `{"amount":"300"}`, string(logs[0].NewValues))
	assert.Nil(t, logs[0].OldValues)
}

func TestRecorder_LargeSnapshotIsCompressed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec, err := NewRecorder(64)
	require.NoError(t, err)

	big := map[string]string{"notes": strings.Repeat("x", 500)}
	require.NoError(t, rec.Record(ctx, store.Audit(), Entry{
		CompanyID: "c1", Action: entity.AuditUpdate, EntityType: "invoice", EntityID: "i1",
		Old: big, New: big,
	}))

	svc := NewService(store.Audit(), rec)
	out, err := svc.List(ctx, "c1", repository.AuditFilter{EntityType: "invoice"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)

	logs, _ := store.Audit().List(ctx, "c1", repository.AuditFilter{})
	assert.Equal(t, entity.CompressionZstd, logs[0].Compression)
	assert.Less(t, len(logs[0].NewValues), 500)
	assert.JSONEq(t, `{"notes":"`+strings.Repeat("x", 500)+`"}`, string(out.Items[0].NewValues))
}

func TestService_ListIsTenantScoped(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec, err := NewRecorder(0)
	require.NoError(t, err)
	require.NoError(t, rec.Record(ctx, store.Audit(), Entry{CompanyID: "c1", Action: entity.AuditCreate, EntityType: "order", EntityID: "o1"}))

	out, err := NewService(store.Audit(), rec).List(ctx, "c2", repository.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}
