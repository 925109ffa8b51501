package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/internal/infrastructure/buffer"
	"github.com/fastygo/revenue-engine/usecase"
)

type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferEvent(ctx context.Context, event *domain.Event) error {
	if b.processor == nil || event == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	item := buffer.Item{
		ID:          event.ID,
		WorkspaceID: event.WorkspaceID,
		Entity:      buffer.EntityEvent,
		Data:        payload,
		Priority:    buffer.PriorityEvent,
	}
	return b.processor.BufferOperation(ctx, item)
}

func (b *BufferBridge) BufferVisit(ctx context.Context, visit *domain.AnonymousVisit) error {
	if b.processor == nil || visit == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(visit)
	if err != nil {
		return err
	}
	item := buffer.Item{
		ID:          visit.ID,
		WorkspaceID: visit.WorkspaceID,
		Entity:      buffer.EntityVisit,
		Data:        payload,
		Priority:    buffer.PriorityVisit,
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
