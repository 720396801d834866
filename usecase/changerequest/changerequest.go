package changerequest

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/pkg/validate"
	"github.com/fastygo/rozklad/usecase"
)

const collection = "/change-requests"

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

// List returns requests, optionally narrowed to one status; an empty status means all.
func (uc *UseCase) List(ctx context.Context, status domain.ChangeRequestStatus) ([]domain.ChangeRequest, error) {
	if status != "" {
		if err := validate.Var("status", string(status), "oneof=pending approved rejected"); err != nil {
			return nil, err
		}
	}
	var out []domain.ChangeRequest
	if err := uc.api.Get(ctx, collection, usecase.NewQuery().String("status", string(status)).Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *UseCase) Get(ctx context.Context, id int64) (*domain.ChangeRequest, error) {
	var out domain.ChangeRequest
	if err := uc.api.Get(ctx, usecase.Path(collection, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (uc *UseCase) Create(ctx context.Context, input domain.ChangeRequestInput) (*domain.ChangeRequest, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	var out domain.ChangeRequest
	if err := uc.api.Post(ctx, collection, input, &out); err != nil {
		return nil, err
	}
	uc.logger.Info("change request submitted", zap.Int64("request_id", out.ID), zap.String("type", string(out.ChangeType)))
	return &out, nil
}

func (uc *UseCase) Update(ctx context.Context, id int64, update domain.ChangeRequestUpdate) (*domain.ChangeRequest, error) {
	var out domain.ChangeRequest
	if err := uc.api.Put(ctx, usecase.Path(collection, id), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Approve marks the request approved; the backend applies it to the schedule.
func (uc *UseCase) Approve(ctx context.Context, id int64) (*domain.ChangeRequest, error) {
	status := domain.RequestApproved
	return uc.Update(ctx, id, domain.ChangeRequestUpdate{Status: &status})
}

// Reject marks the request rejected with an optional comment for the requester.
func (uc *UseCase) Reject(ctx context.Context, id int64, comment string) (*domain.ChangeRequest, error) {
	status := domain.RequestRejected
	update := domain.ChangeRequestUpdate{Status: &status}
	if comment != "" {
		update.AdminComment = &comment
	}
	return uc.Update(ctx, id, update)
}
