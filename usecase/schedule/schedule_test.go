package schedule

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/rozklad/domain"
)

func date(s string) *string { return &s }

func TestWeekStart(t *testing.T) {
	wed := time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), WeekStart(wed))

	sun := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), WeekStart(sun))

	mon := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, mon, WeekStart(mon))
}

func TestGroupByWeek(t *testing.T) {
	ref := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	entries := []domain.ScheduleEntry{
		{ID: 3, DayOfWeek: domain.Monday, StartTime: "10:00"},
		{ID: 1, DayOfWeek: domain.Monday, StartTime: "08:30"},
		{ID: 2, DayOfWeek: domain.Monday, StartTime: "08:30"},
		{ID: 4, DayOfWeek: domain.Friday, StartTime: "09:00", SpecificDate: date("2026-10-16")},
		{ID: 5, DayOfWeek: domain.Friday, StartTime: "09:00", SpecificDate: date("2026-10-23")},
		{ID: 6, DayOfWeek: domain.DayOfWeek("someday")},
	}

	days := GroupByWeek(entries, ref)
	require.Len(t, days, 7)
	assert.Equal(t, domain.Monday, days[0].Day)
	assert.Equal(t, domain.Sunday, days[6].Day)
	assert.Equal(t, "2026-10-12", days[0].Date.Format(domain.DateLayout))
	assert.Equal(t, "2026-10-18", days[6].Date.Format(domain.DateLayout))

	var monday []int64
	for _, e := range days[0].Entries {
		monday = append(monday, e.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, monday)

	require.Len(t, days[4].Entries, 1)
	assert.Equal(t, int64(4), days[4].Entries[0].ID)
	for _, d := range []int{1, 2, 3, 5, 6} {
		assert.Empty(t, days[d].Entries)
	}
}

type recordingBackend struct {
	path  string
	query url.Values
	body  interface{}
	reply []domain.ScheduleEntry
}

func (b *recordingBackend) Get(_ context.Context, path string, query url.Values, out interface{}) error {
	b.path, b.query = path, query
	if p, ok := out.(*[]domain.ScheduleEntry); ok {
		*p = b.reply
	}
	return nil
}

func (b *recordingBackend) Post(_ context.Context, path string, body, out interface{}) error {
	b.path, b.body = path, body
	return nil
}

func (b *recordingBackend) Put(_ context.Context, path string, body, out interface{}) error {
	b.path, b.body = path, body
	return nil
}

func (b *recordingBackend) Delete(_ context.Context, path string, out interface{}) error {
	b.path = path
	return nil
}

func (b *recordingBackend) PostForm(_ context.Context, path string, form url.Values, out interface{}) error {
	b.path = path
	return nil
}

func TestListBuildsQuery(t *testing.T) {
	backend := &recordingBackend{}
	uc := New(backend, nil)

	_, err := uc.List(context.Background(), domain.ScheduleFilter{GroupID: 2, SpecificDate: "2026-10-14"})
	require.NoError(t, err)
	assert.Equal(t, "/schedule", backend.path)
	assert.Equal(t, url.Values{"group_id": {"2"}, "specific_date": {"2026-10-14"}}, backend.query)

	_, err = uc.List(context.Background(), domain.ScheduleFilter{SpecificDate: "14.10.2026"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestTodayUsesClock(t *testing.T) {
	backend := &recordingBackend{}
	uc := New(backend, nil)
	uc.now = func() time.Time { return time.Date(2026, time.October, 17, 8, 0, 0, 0, time.UTC) }

	_, err := uc.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", backend.query.Get("specific_date"))
}

func TestCreateValidatesBeforeSending(t *testing.T) {
	backend := &recordingBackend{}
	uc := New(backend, nil)

	_, err := uc.Create(context.Background(), domain.ScheduleEntryInput{DayOfWeek: "funday"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Empty(t, backend.path)

	_, err = uc.Create(context.Background(), domain.ScheduleEntryInput{
		DayOfWeek: domain.Tuesday, GroupID: 1, SubjectID: 1, TeacherID: 1, ClassroomID: 1, TimeSlotID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "/schedule", backend.path)

	require.NoError(t, uc.Delete(context.Background(), 9))
	assert.Equal(t, "/schedule/9", backend.path)
}
