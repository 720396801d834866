package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/usecase"
)

const collection = "/notifications"

type UseCase struct {
	api    usecase.Backend
	logger *zap.Logger
}

func New(api usecase.Backend, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{api: api, logger: logger}
}

func (uc *UseCase) List(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	query := usecase.NewQuery().Bool("unread_only", unreadOnly)
	var out []domain.Notification
	if err := uc.api.Get(ctx, collection, query.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *UseCase) MarkRead(ctx context.Context, id int64) (*domain.Notification, error) {
	var out domain.Notification
	if err := uc.api.Put(ctx, usecase.Path(collection, id, "read"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (uc *UseCase) MarkAllRead(ctx context.Context) error {
	return uc.api.Put(ctx, collection+"/mark-all-read", nil, nil)
}

func (uc *UseCase) Delete(ctx context.Context, id int64) error {
	return uc.api.Delete(ctx, usecase.Path(collection, id), nil)
}
