package mockapi

import (
	"github.com/valyala/fasthttp"

	"github.com/fastygo/rozklad/domain"
)

func notificationID(n domain.Notification) int64 { return n.ID }

func (a *API) ListNotifications(ctx *fasthttp.RequestCtx) {
	user := currentUser(ctx)
	unreadOnly := queryBool(ctx, "unread_only")

	a.data.mu.RLock()
	all := sorted(a.data.notifications, notificationID)
	a.data.mu.RUnlock()

	out := make([]domain.Notification, 0)
	for i := len(all) - 1; i >= 0; i-- {
		n := all[i]
		if n.UserID != user.ID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	respondJSON(ctx, fasthttp.StatusOK, out)
}

func (a *API) MarkNotificationRead(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	user := currentUser(ctx)

	a.data.mu.Lock()
	defer a.data.mu.Unlock()
	n, found := a.data.notifications[id]
	if !found || n.UserID != user.ID {
		respondNotFound(ctx, "Notification")
		return
	}
	if !n.IsRead {
		now := a.data.now()
		n.IsRead = true
		n.ReadAt = domain.TimestampPtr(now)
		a.data.notifications[id] = n
	}
	respondJSON(ctx, fasthttp.StatusOK, n)
}

func (a *API) MarkAllNotificationsRead(ctx *fasthttp.RequestCtx) {
	user := currentUser(ctx)

	a.data.mu.Lock()
	now := a.data.now()
	count := 0
	for id, n := range a.data.notifications {
		if n.UserID == user.ID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = domain.TimestampPtr(now)
			a.data.notifications[id] = n
			count++
		}
	}
	a.data.mu.Unlock()
	respondJSON(ctx, fasthttp.StatusOK, map[string]int{"updated": count})
}

func (a *API) DeleteNotification(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	user := currentUser(ctx)

	a.data.mu.Lock()
	n, found := a.data.notifications[id]
	if found && n.UserID == user.ID {
		delete(a.data.notifications, id)
	}
	a.data.mu.Unlock()
	if !found || n.UserID != user.ID {
		respondNotFound(ctx, "Notification")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}
