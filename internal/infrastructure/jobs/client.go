package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/erp-ledger/internal/application/inventory"
)

var _ inventory.RecalcEnqueuer = (*Client)(nil)

// Client encola tareas en Redis.
type Client struct {
	client *asynq.Client
}

// NewClient construye el cliente.
func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// EnqueueRecalculate encola TaskRecalculate y devuelve el id de la tarea.
func (c *Client) EnqueueRecalculate(ctx context.Context, companyID string) (string, error) {
	task, err := NewRecalculateTask(companyID)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("encolar %s: %w", TaskRecalculate, err)
	}
	return info.ID, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
