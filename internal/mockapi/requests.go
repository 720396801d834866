package mockapi

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/rozklad/domain"
)

func requestID(r domain.ChangeRequest) int64 { return r.ID }

func parseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}

// ListChangeRequests shows reviewers every request and everyone else their own.
func (a *API) ListChangeRequests(ctx *fasthttp.RequestCtx) {
	user := currentUser(ctx)
	status := domain.ChangeRequestStatus(ctx.QueryArgs().Peek("status"))

	a.data.mu.RLock()
	all := sorted(a.data.requests, requestID)
	a.data.mu.RUnlock()

	out := make([]domain.ChangeRequest, 0, len(all))
	for _, r := range all {
		if !user.CanReviewRequests() && r.CreatedBy != user.ID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	respondJSON(ctx, fasthttp.StatusOK, out)
}

func (a *API) GetChangeRequest(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	user := currentUser(ctx)
	a.data.mu.RLock()
	r, found := a.data.requests[id]
	a.data.mu.RUnlock()
	if !found || (!user.CanReviewRequests() && r.CreatedBy != user.ID) {
		respondNotFound(ctx, "Change request")
		return
	}
	respondJSON(ctx, fasthttp.StatusOK, r)
}

func (a *API) CreateChangeRequest(ctx *fasthttp.RequestCtx) {
	user := currentUser(ctx)
	if !user.CanSubmitRequests() {
		respondDetail(ctx, fasthttp.StatusForbidden, notEnoughPermissions)
		return
	}
	var in domain.ChangeRequestInput
	if !decode(ctx, &in) {
		return
	}

	a.data.mu.Lock()
	defer a.data.mu.Unlock()

	if _, ok := a.data.schedule[in.ScheduleEntryID]; !ok {
		respondNotFound(ctx, "Schedule entry")
		return
	}
	r := domain.ChangeRequest{
		ID:              a.data.id(),
		ChangeType:      in.ChangeType,
		Reason:          in.Reason,
		RequestedDate:   in.RequestedDate,
		ScheduleEntryID: in.ScheduleEntryID,
		NewTimeSlotID:   in.NewTimeSlotID,
		NewDate:         in.NewDate,
		NewClassroomID:  in.NewClassroomID,
		NewTeacherID:    in.NewTeacherID,
		Status:          domain.RequestPending,
		CreatedBy:       user.ID,
		CreatedAt:       domain.NewTimestamp(a.data.now()),
	}
	a.data.requests[r.ID] = r

	for _, acc := range a.data.accounts {
		if acc.user.CanReviewRequests() && acc.user.ID != user.ID {
			a.data.notify(acc.user.ID, domain.NotifyChangeRequestUpdate, "New change request",
				fmt.Sprintf("%s requested a %s for %s", user.FullName, r.ChangeType, r.RequestedDate), &r.ScheduleEntryID, &r.ID)
		}
	}
	respondJSON(ctx, fasthttp.StatusCreated, r)
}

// UpdateChangeRequest lets a reviewer approve or reject a pending request. Approval
// applies the change to the schedule entry and notifies the requester.
func (a *API) UpdateChangeRequest(ctx *fasthttp.RequestCtx) {
	user := currentUser(ctx)
	if !user.CanReviewRequests() {
		respondDetail(ctx, fasthttp.StatusForbidden, notEnoughPermissions)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var in domain.ChangeRequestUpdate
	if !decode(ctx, &in) {
		return
	}

	a.data.mu.Lock()
	defer a.data.mu.Unlock()

	r, found := a.data.requests[id]
	if !found {
		respondNotFound(ctx, "Change request")
		return
	}
	if in.Status != nil && !r.IsPending() {
		respondDetail(ctx, fasthttp.StatusBadRequest, "Request already processed")
		return
	}
	if in.AdminComment != nil {
		r.AdminComment = in.AdminComment
	}
	if in.NewTimeSlotID != nil {
		r.NewTimeSlotID = in.NewTimeSlotID
	}
	if in.NewDate != nil {
		r.NewDate = in.NewDate
	}
	if in.NewClassroomID != nil {
		r.NewClassroomID = in.NewClassroomID
	}
	if in.NewTeacherID != nil {
		r.NewTeacherID = in.NewTeacherID
	}

	if in.Status != nil && *in.Status != domain.RequestPending {
		if *in.Status == domain.RequestApproved {
			if msg := a.data.apply(r); msg != "" {
				respondDetail(ctx, fasthttp.StatusConflict, msg)
				return
			}
		}
		now := a.data.now()
		r.Status = *in.Status
		r.ProcessedBy = &user.ID
		r.ProcessedAt = domain.TimestampPtr(now)
		a.data.notify(r.CreatedBy, domain.NotifyChangeRequestUpdate, "Change request "+string(r.Status),
			fmt.Sprintf("Your %s request for %s was %s", r.ChangeType, r.RequestedDate, r.Status), &r.ScheduleEntryID, &r.ID)
	}

	a.data.requests[id] = r
	respondJSON(ctx, fasthttp.StatusOK, r)
}

// apply changes the entry a request refers to and notifies the affected group's
// readers. It returns a conflict message when the change cannot be made.
func (d *Data) apply(r domain.ChangeRequest) string {
	entry, ok := d.schedule[r.ScheduleEntryID]
	if !ok {
		return "Schedule entry no longer exists"
	}
	kind := domain.NotifyScheduleChange
	switch r.ChangeType {
	case domain.ChangeCancellation:
		entry.Status = domain.ScheduleCancelled
		kind = domain.NotifyCancellation
	case domain.ChangeSubstitution:
		entry.Status = domain.ScheduleSubstituted
		entry.SubstituteTeacherID = r.NewTeacherID
		kind = domain.NotifySubstitution
	case domain.ChangeReschedule:
		entry.Status = domain.ScheduleRescheduled
		if r.NewTimeSlotID != nil {
			entry.TimeSlotID = *r.NewTimeSlotID
		}
		if r.NewDate != nil {
			entry.SpecificDate = r.NewDate
			if day, err := parseDate(*r.NewDate); err == nil {
				entry.DayOfWeek = domain.DayOf(day)
			}
		}
		kind = domain.NotifyReschedule
	case domain.ChangeClassroomChange:
		if r.NewClassroomID != nil {
			original := entry.ClassroomID
			entry.OriginalClassroomID = &original
			entry.ClassroomID = *r.NewClassroomID
		}
		kind = domain.NotifyClassroomChange
	}
	if msg := d.conflict(entry); msg != "" {
		return msg
	}
	entry.ChangeRequestID = &r.ID
	entry.UpdatedAt = domain.NewTimestamp(d.now())
	entry = d.resolve(entry)
	d.schedule[entry.ID] = entry

	for _, acc := range d.accounts {
		if acc.user.ID == r.CreatedBy {
			continue
		}
		d.notify(acc.user.ID, kind, "Schedule changed",
			fmt.Sprintf("%s %s on %s: %s", entry.SubjectName, entry.GroupName, r.RequestedDate, r.ChangeType), &entry.ID, &r.ID)
	}
	return ""
}
