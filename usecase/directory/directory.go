package directory

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/pkg/validate"
	"github.com/fastygo/rozklad/usecase"
)

const (
	groupsPath     = "/groups"
	teachersPath   = "/teachers"
	classroomsPath = "/classrooms"
	subjectsPath   = "/subjects"
	timeSlotsPath  = "/time-slots"
)

// UseCase reads and edits the reference data schedules are built from: groups,
// teachers, classrooms, subjects and time slots.
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

func institution(id int64) usecase.Query {
	return usecase.NewQuery().Int("institution_id", id)
}

func list[T any](ctx context.Context, api usecase.Backend, path string, institutionID int64) ([]T, error) {
	var out []T
	if err := api.Get(ctx, path, institution(institutionID).Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func create[T any](ctx context.Context, api usecase.Backend, path string, in T) (*T, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var out T
	if err := api.Post(ctx, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func update[T any](ctx context.Context, api usecase.Backend, path string, id int64, in T) (*T, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var out T
	if err := api.Put(ctx, usecase.Path(path, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (uc *UseCase) Groups(ctx context.Context, institutionID int64) ([]domain.Group, error) {
	return list[domain.Group](ctx, uc.api, groupsPath, institutionID)
}

func (uc *UseCase) CreateGroup(ctx context.Context, g domain.Group) (*domain.Group, error) {
	out, err := create(ctx, uc.api, groupsPath, g)
	if err == nil {
		uc.logger.Info("group created", zap.Int64("group_id", out.ID))
	}
	return out, err
}

func (uc *UseCase) UpdateGroup(ctx context.Context, id int64, g domain.Group) (*domain.Group, error) {
	return update(ctx, uc.api, groupsPath, id, g)
}

func (uc *UseCase) DeleteGroup(ctx context.Context, id int64) error {
	return uc.api.Delete(ctx, usecase.Path(groupsPath, id), nil)
}

func (uc *UseCase) Teachers(ctx context.Context, institutionID int64) ([]domain.Teacher, error) {
	return list[domain.Teacher](ctx, uc.api, teachersPath, institutionID)
}

func (uc *UseCase) CreateTeacher(ctx context.Context, t domain.Teacher) (*domain.Teacher, error) {
	out, err := create(ctx, uc.api, teachersPath, t)
	if err == nil {
		uc.logger.Info("teacher created", zap.Int64("teacher_id", out.ID))
	}
	return out, err
}

func (uc *UseCase) UpdateTeacher(ctx context.Context, id int64, t domain.Teacher) (*domain.Teacher, error) {
	return update(ctx, uc.api, teachersPath, id, t)
}

func (uc *UseCase) DeleteTeacher(ctx context.Context, id int64) error {
	return uc.api.Delete(ctx, usecase.Path(teachersPath, id), nil)
}

func (uc *UseCase) Classrooms(ctx context.Context, institutionID int64) ([]domain.Classroom, error) {
	return list[domain.Classroom](ctx, uc.api, classroomsPath, institutionID)
}

func (uc *UseCase) CreateClassroom(ctx context.Context, c domain.Classroom) (*domain.Classroom, error) {
	out, err := create(ctx, uc.api, classroomsPath, c)
	if err == nil {
		uc.logger.Info("classroom created", zap.Int64("classroom_id", out.ID))
	}
	return out, err
}

func (uc *UseCase) UpdateClassroom(ctx context.Context, id int64, c domain.Classroom) (*domain.Classroom, error) {
	return update(ctx, uc.api, classroomsPath, id, c)
}

func (uc *UseCase) DeleteClassroom(ctx context.Context, id int64) error {
	return uc.api.Delete(ctx, usecase.Path(classroomsPath, id), nil)
}

func (uc *UseCase) Subjects(ctx context.Context, institutionID int64) ([]domain.Subject, error) {
	return list[domain.Subject](ctx, uc.api, subjectsPath, institutionID)
}

func (uc *UseCase) CreateSubject(ctx context.Context, s domain.Subject) (*domain.Subject, error) {
	return create(ctx, uc.api, subjectsPath, s)
}

func (uc *UseCase) TimeSlots(ctx context.Context, institutionID int64) ([]domain.TimeSlot, error) {
	return list[domain.TimeSlot](ctx, uc.api, timeSlotsPath, institutionID)
}

func (uc *UseCase) CreateTimeSlot(ctx context.Context, ts domain.TimeSlot) (*domain.TimeSlot, error) {
	return create(ctx, uc.api, timeSlotsPath, ts)
}
