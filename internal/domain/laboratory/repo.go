package laboratory

import (
	"context"

	"github.com/google/uuid"
)

// LabRepository persists lab orders and their results. A single interface
// because order completion depends on the result set.
type LabRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, o *Order) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	AppendInstructions(ctx context.Context, id uuid.UUID, note string) error
	List(ctx context.Context, filter ListOrdersFilter, limit, offset int) ([]*Order, int, error)
	Count(ctx context.Context) (int, error)

	CreateResult(ctx context.Context, r *Result) error
	GetResultByID(ctx context.Context, id uuid.UUID) (*Result, error)
	UpdateResult(ctx context.Context, r *Result) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Result, error)
	ListResults(ctx context.Context, filter ListResultsFilter, limit, offset int) ([]*Result, int, error)

	Stats(ctx context.Context) (*LabStats, error)
}
