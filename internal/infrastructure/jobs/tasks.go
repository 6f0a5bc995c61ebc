package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola de las tareas del libro.
	QueueDefault = "default"
	// TaskRecalculate reconstruye los niveles de una empresa.
	TaskRecalculate = "stock:recalculate"
	// TaskRecalculateAll reconstruye los niveles de todas las empresas activas (programada).
	TaskRecalculateAll = "stock:recalculate-all"
)

// RecalculatePayload cuerpo de TaskRecalculate.
type RecalculatePayload struct {
	CompanyID string `json:"company_id"`
}

// NewRecalculateTask construye la tarea para una empresa.
func NewRecalculateTask(companyID string) (*asynq.Task, error) {
	body, err := json.Marshal(RecalculatePayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecalculate, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	), nil
}

// NewRecalculateAllTask construye la tarea programada sin payload.
func NewRecalculateAllTask() *asynq.Task {
	return asynq.NewTask(TaskRecalculateAll, nil,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Hour),
	)
}
