package mockapi

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/rozklad/domain"
)

// resource describes one directory collection for the generic CRUD handlers.
type resource[T any] struct {
	name        string
	table       func(d *Data) map[int64]T
	id          func(T) int64
	setID       func(*T, int64)
	institution func(T) int64
	// stamp sets timestamps; created is false on update.
	stamp func(v *T, now time.Time, created bool)
}

var (
	groupsResource = resource[domain.Group]{
		name:        "Group",
		table:       func(d *Data) map[int64]domain.Group { return d.groups },
		id:          func(g domain.Group) int64 { return g.ID },
		setID:       func(g *domain.Group, id int64) { g.ID = id },
		institution: func(g domain.Group) int64 { return g.InstitutionID },
		stamp: func(g *domain.Group, now time.Time, created bool) {
			if created {
				g.CreatedAt = domain.NewTimestamp(now)
			}
			g.UpdatedAt = domain.NewTimestamp(now)
		},
	}
	teachersResource = resource[domain.Teacher]{
		name:        "Teacher",
		table:       func(d *Data) map[int64]domain.Teacher { return d.teachers },
		id:          func(t domain.Teacher) int64 { return t.ID },
		setID:       func(t *domain.Teacher, id int64) { t.ID = id },
		institution: func(t domain.Teacher) int64 { return t.InstitutionID },
		stamp: func(t *domain.Teacher, now time.Time, created bool) {
			if created {
				t.CreatedAt = domain.NewTimestamp(now)
			}
			t.UpdatedAt = domain.NewTimestamp(now)
		},
	}
	classroomsResource = resource[domain.Classroom]{
		name:        "Classroom",
		table:       func(d *Data) map[int64]domain.Classroom { return d.classrooms },
		id:          func(c domain.Classroom) int64 { return c.ID },
		setID:       func(c *domain.Classroom, id int64) { c.ID = id },
		institution: func(c domain.Classroom) int64 { return c.InstitutionID },
		stamp: func(c *domain.Classroom, now time.Time, created bool) {
			if created {
				c.CreatedAt = domain.NewTimestamp(now)
			}
			c.UpdatedAt = domain.NewTimestamp(now)
		},
	}
	subjectsResource = resource[domain.Subject]{
		name:        "Subject",
		table:       func(d *Data) map[int64]domain.Subject { return d.subjects },
		id:          func(s domain.Subject) int64 { return s.ID },
		setID:       func(s *domain.Subject, id int64) { s.ID = id },
		institution: func(s domain.Subject) int64 { return s.InstitutionID },
	}
	timeSlotsResource = resource[domain.TimeSlot]{
		name:        "Time slot",
		table:       func(d *Data) map[int64]domain.TimeSlot { return d.timeSlots },
		id:          func(t domain.TimeSlot) int64 { return t.ID },
		setID:       func(t *domain.TimeSlot, id int64) { t.ID = id },
		institution: func(t domain.TimeSlot) int64 { return t.InstitutionID },
	}
)

func listHandler[T any](a *API, r resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		institution := queryInt(ctx, "institution_id")
		a.data.mu.RLock()
		all := sorted(r.table(a.data), r.id)
		a.data.mu.RUnlock()

		out := make([]T, 0, len(all))
		for _, v := range all {
			if institution == 0 || r.institution(v) == institution {
				out = append(out, v)
			}
		}
		respondJSON(ctx, fasthttp.StatusOK, out)
	}
}

func createHandler[T any](a *API, r resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !currentUser(ctx).CanManageDirectory() {
			respondDetail(ctx, fasthttp.StatusForbidden, notEnoughPermissions)
			return
		}
		var v T
		if !decode(ctx, &v) {
			return
		}
		a.data.mu.Lock()
		r.setID(&v, a.data.id())
		if r.stamp != nil {
			r.stamp(&v, a.data.now(), true)
		}
		r.table(a.data)[r.id(v)] = v
		a.data.mu.Unlock()
		respondJSON(ctx, fasthttp.StatusCreated, v)
	}
}

func updateHandler[T any](a *API, r resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !currentUser(ctx).CanManageDirectory() {
			respondDetail(ctx, fasthttp.StatusForbidden, notEnoughPermissions)
			return
		}
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		var v T
		if !decode(ctx, &v) {
			return
		}

		a.data.mu.Lock()
		defer a.data.mu.Unlock()
		table := r.table(a.data)
		if _, found := table[id]; !found {
			respondNotFound(ctx, r.name)
			return
		}
		r.setID(&v, id)
		if r.stamp != nil {
			r.stamp(&v, a.data.now(), false)
		}
		table[id] = v
		a.data.refreshNames()
		respondJSON(ctx, fasthttp.StatusOK, v)
	}
}

func deleteHandler[T any](a *API, r resource[T]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !currentUser(ctx).CanManageDirectory() {
			respondDetail(ctx, fasthttp.StatusForbidden, notEnoughPermissions)
			return
		}
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		a.data.mu.Lock()
		table := r.table(a.data)
		_, found := table[id]
		delete(table, id)
		a.data.mu.Unlock()
		if !found {
			respondNotFound(ctx, r.name)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	}
}

// refreshNames re-resolves display names after a directory edit.
func (d *Data) refreshNames() {
	for id, e := range d.schedule {
		d.schedule[id] = d.resolve(e)
	}
}
