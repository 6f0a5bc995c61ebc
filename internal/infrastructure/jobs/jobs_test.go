package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
)

type fakeRecalculator struct {
	calls  []string
	actors []string
	failOn string
}

func (f *fakeRecalculator) Recalculate(_ context.Context, companyID, userID string) (*dto.RecalculateResponse, error) {
	f.calls = append(f.calls, companyID)
	f.actors = append(f.actors, userID)
	if companyID == f.failOn {
		return nil, errors.New("lock timeout")
	}
	return &dto.RecalculateResponse{RecalculatedCount: 2}, nil
}

type fakeCompanies []string

func (f fakeCompanies) ListIDs(context.Context) ([]string, error) { return f, nil }

func TestNewRecalculateTask_Payload(t *testing.T) {
	task, err := NewRecalculateTask("c1")
	require.NoError(t, err)
	assert.Equal(t, TaskRecalculate, task.Type())

	var p RecalculatePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "c1", p.CompanyID)
}

func TestHandleRecalculate(t *testing.T) {
	rec := &fakeRecalculator{}
	h := NewHandlers(rec, fakeCompanies{}, zerolog.Nop())

	task, err := NewRecalculateTask("c1")
	require.NoError(t, err)
	require.NoError(t, h.HandleRecalculate(context.Background(), task))
	assert.Equal(t, []string{"c1"}, rec.calls)
	assert.Equal(t, []string{SystemActor}, rec.actors)
}

func TestHandleRecalculate_BadPayloadSkipsRetry(t *testing.T) {
	h := NewHandlers(&fakeRecalculator{}, fakeCompanies{}, zerolog.Nop())

	err := h.HandleRecalculate(context.Background(), asynq.NewTask(TaskRecalculate, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.HandleRecalculate(context.Background(), asynq.NewTask(TaskRecalculate, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRecalculate_ServiceErrorIsRetried(t *testing.T) {
	h := NewHandlers(&fakeRecalculator{failOn: "c1"}, fakeCompanies{}, zerolog.Nop())
	task, _ := NewRecalculateTask("c1")

	err := h.HandleRecalculate(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRecalculateAll_ContinuesAfterFailure(t *testing.T) {
	rec := &fakeRecalculator{failOn: "c2"}
	h := NewHandlers(rec, fakeCompanies{"c1", "c2", "c3"}, zerolog.Nop())

	err := h.HandleRecalculateAll(context.Background(), NewRecalculateAllTask())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c2")
	assert.Equal(t, []string{"c1", "c2", "c3"}, rec.calls)
}

func TestNewWorker_Validation(t *testing.T) {
	h := NewHandlers(&fakeRecalculator{}, fakeCompanies{}, zerolog.Nop())
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:0"}

	_, err := NewWorker(WorkerConfig{RedisOpt: opt})
	assert.Error(t, err)

	_, err = NewWorker(WorkerConfig{RedisOpt: opt, Handlers: h, RecalculateCron: "0 3 * * *", Timezone: "Marte/Olympus"})
	assert.Error(t, err)

	_, err = NewWorker(WorkerConfig{RedisOpt: opt, Handlers: h, RecalculateCron: "no es cron"})
	assert.Error(t, err)

	w, err := NewWorker(WorkerConfig{RedisOpt: opt, Handlers: h, RecalculateCron: "0 3 * * *", Timezone: "America/Bogota"})
	require.NoError(t, err)
	assert.NotNil(t, w.scheduler)
}

func TestClient_EnqueueRecalculate(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })

	id, err := c.EnqueueRecalculate(context.Background(), "c1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, mr.Keys())
}
