package schedule

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/pkg/validate"
	"github.com/fastygo/rozklad/usecase"
)

const collection = "/schedule"

type UseCase struct {
	api    usecase.Backend
	logger *zap.Logger
	now    func() time.Time
}

func New(api usecase.Backend, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{api: api, logger: logger, now: time.Now}
}

func (uc *UseCase) List(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduleEntry, error) {
	if filter.SpecificDate != "" {
		if err := validate.Var("specific_date", filter.SpecificDate, "datetime="+domain.DateLayout); err != nil {
			return nil, err
		}
	}
	query := usecase.NewQuery().
		Int("group_id", filter.GroupID).
		Int("teacher_id", filter.TeacherID).
		Int("classroom_id", filter.ClassroomID).
		String("specific_date", filter.SpecificDate)

	var entries []domain.ScheduleEntry
	if err := uc.api.Get(ctx, collection, query.Values(), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Today lists the entries dated today.
func (uc *UseCase) Today(ctx context.Context) ([]domain.ScheduleEntry, error) {
	return uc.List(ctx, domain.ScheduleFilter{SpecificDate: uc.now().Format(domain.DateLayout)})
}

func (uc *UseCase) Get(ctx context.Context, id int64) (*domain.ScheduleEntry, error) {
	var entry domain.ScheduleEntry
	if err := uc.api.Get(ctx, usecase.Path(collection, id), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create posts a candidate entry from the schedule builder. Conflicts are reported by
// the backend as an HTTP error.
func (uc *UseCase) Create(ctx context.Context, input domain.ScheduleEntryInput) (*domain.ScheduleEntry, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	var entry domain.ScheduleEntry
	if err := uc.api.Post(ctx, collection, input, &entry); err != nil {
		return nil, err
	}
	uc.logger.Info("schedule entry created", zap.Int64("entry_id", entry.ID))
	return &entry, nil
}

func (uc *UseCase) Update(ctx context.Context, id int64, update domain.ScheduleEntryUpdate) (*domain.ScheduleEntry, error) {
	if err := validate.Struct(update); err != nil {
		return nil, err
	}
	var entry domain.ScheduleEntry
	if err := uc.api.Put(ctx, usecase.Path(collection, id), update, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (uc *UseCase) Delete(ctx context.Context, id int64) error {
	return uc.api.Delete(ctx, usecase.Path(collection, id), nil)
}

// Day is one column of the weekly view.
type Day struct {
	Day     domain.DayOfWeek
	Date    time.Time
	Entries []domain.ScheduleEntry
}

// Week fetches entries matching filter and lays them out Monday to Sunday for the week
// containing ref.
func (uc *UseCase) Week(ctx context.Context, filter domain.ScheduleFilter, ref time.Time) ([]Day, error) {
	entries, err := uc.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return GroupByWeek(entries, ref), nil
}

// GroupByWeek places each entry under its weekday, ordered by start time then id.
// An entry dated outside the week of ref is left out.
func GroupByWeek(entries []domain.ScheduleEntry, ref time.Time) []Day {
	start := WeekStart(ref)
	end := start.AddDate(0, 0, 7)

	days := make([]Day, len(domain.Week))
	index := make(map[domain.DayOfWeek]int, len(domain.Week))
	for i, d := range domain.Week {
		days[i] = Day{Day: d, Date: start.AddDate(0, 0, i)}
		index[d] = i
	}

	for _, e := range entries {
		if e.SpecificDate != nil && *e.SpecificDate != "" {
			date, err := time.ParseInLocation(domain.DateLayout, *e.SpecificDate, ref.Location())
			if err == nil && (date.Before(start) || !date.Before(end)) {
				continue
			}
		}
		i, ok := index[e.DayOfWeek]
		if !ok {
			continue
		}
		days[i].Entries = append(days[i].Entries, e)
	}

	for i := range days {
		sort.SliceStable(days[i].Entries, func(a, b int) bool {
			ea, eb := days[i].Entries[a], days[i].Entries[b]
			if ea.StartTime != eb.StartTime {
				return ea.StartTime < eb.StartTime
			}
			return ea.ID < eb.ID
		})
	}
	return days
}

// WeekStart returns midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
