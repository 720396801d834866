package notification

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fastygo/rozklad/domain"
)

type (
	todayLister interface {
		Today(ctx context.Context) ([]domain.ScheduleEntry, error)
	}
	requestLister interface {
		List(ctx context.Context, status domain.ChangeRequestStatus) ([]domain.ChangeRequest, error)
	}
)

// Dashboard gathers today's classes, unread notifications and, for reviewers, the
// pending change requests. The calls run concurrently and the first failure wins.
func (uc *UseCase) Dashboard(ctx context.Context, viewer *domain.User, schedule todayLister, requests requestLister) (*domain.Dashboard, error) {
	if viewer == nil {
		return nil, domain.ErrNotAuthenticated
	}

	var dash domain.Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		today, err := schedule.Today(ctx)
		dash.Today = today
		return err
	})
	g.Go(func() error {
		unread, err := uc.List(ctx, true)
		dash.Unread = unread
		return err
	})
	if viewer.CanReviewRequests() && requests != nil {
		g.Go(func() error {
			pending, err := requests.List(ctx, domain.RequestPending)
			dash.PendingRequests = pending
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dash, nil
}
