package repository

import (
	"context"

	"showtix/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	// CreateTx inserts the schedule (cascading its sections) inside the
	// caller's transaction — pool provisioning creates the schedule and its
	// tickets as one atomic unit.
	CreateTx(tx *gorm.DB, s *model.Schedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	List(ctx context.Context) ([]model.Schedule, error)
	ListByGenre(ctx context.Context, genre string) ([]model.Schedule, error)
}

type scheduleRepo struct{ db *gorm.DB }

func NewScheduleRepository(db *gorm.DB) ScheduleRepository { return &scheduleRepo{db: db} }

func (r *scheduleRepo) CreateTx(tx *gorm.DB, s *model.Schedule) error {
	return tx.Create(s).Error
}

func (r *scheduleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	var s model.Schedule
	err := r.db.WithContext(ctx).Preload("Sections").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *scheduleRepo) List(ctx context.Context) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).Preload("Sections").
		Order("show_date DESC").Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) ListByGenre(ctx context.Context, genre string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).Preload("Sections").
		Where("genre = ?", genre).Order("show_date DESC").Find(&schedules).Error
	return schedules, err
}
