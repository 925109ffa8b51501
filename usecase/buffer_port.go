package usecase

import (
	"context"

	"github.com/fastygo/revenue-engine/domain"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferEvent(ctx context.Context, event *domain.Event) error
	BufferVisit(ctx context.Context, visit *domain.AnonymousVisit) error
}
