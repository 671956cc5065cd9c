package repository

import (
	"context"

	"showtix/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryFilter narrows history listings. DistributorID nil = all
// distributors of the schedule.
type HistoryFilter struct {
	ScheduleID    uuid.UUID
	DistributorID *uuid.UUID
	Page          int
	Limit         int
}

// AllocationHistoryRepository is the append-only audit trail of allocation
// batches. There are deliberately no Update or Delete methods.
type AllocationHistoryRepository interface {
	CreateTx(tx *gorm.DB, e *model.AllocationHistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]model.AllocationHistoryEntry, int64, error)
}

type allocationHistoryRepo struct{ db *gorm.DB }

func NewAllocationHistoryRepository(db *gorm.DB) AllocationHistoryRepository {
	return &allocationHistoryRepo{db: db}
}

func (r *allocationHistoryRepo) CreateTx(tx *gorm.DB, e *model.AllocationHistoryEntry) error {
	return tx.Create(e).Error
}

func (r *allocationHistoryRepo) List(ctx context.Context, filter HistoryFilter) ([]model.AllocationHistoryEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AllocationHistoryEntry{}).
		Where("schedule_id = ?", filter.ScheduleID)
	if filter.DistributorID != nil {
		q = q.Where("distributor_id = ?", *filter.DistributorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var entries []model.AllocationHistoryEntry
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&entries).Error
	return entries, total, err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return page, limit
}
