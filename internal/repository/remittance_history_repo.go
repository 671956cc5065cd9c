package repository

import (
	"context"

	"showtix/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RemittanceHistoryRepository is the append-only audit trail of remittance
// batches, including their frozen per-ticket detail rows.
type RemittanceHistoryRepository interface {
	CreateTx(tx *gorm.DB, e *model.RemittanceHistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]model.RemittanceHistoryEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.RemittanceHistoryEntry, error)

	// LatestRemitForTicket returns the most recent actionType=remit detail
	// row covering the control number, used by the replay unremit policy.
	LatestRemitForTicket(ctx context.Context, scheduleID uuid.UUID, controlNumber int) (*model.RemittanceTicket, error)
}

type remittanceHistoryRepo struct{ db *gorm.DB }

func NewRemittanceHistoryRepository(db *gorm.DB) RemittanceHistoryRepository {
	return &remittanceHistoryRepo{db: db}
}

func (r *remittanceHistoryRepo) CreateTx(tx *gorm.DB, e *model.RemittanceHistoryEntry) error {
	// GORM cascades the Tickets association in the same insert.
	return tx.Create(e).Error
}

func (r *remittanceHistoryRepo) List(ctx context.Context, filter HistoryFilter) ([]model.RemittanceHistoryEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.RemittanceHistoryEntry{}).
		Where("schedule_id = ?", filter.ScheduleID)
	if filter.DistributorID != nil {
		q = q.Where("distributor_id = ?", *filter.DistributorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var entries []model.RemittanceHistoryEntry
	err := q.Preload("Tickets").
		Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

func (r *remittanceHistoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RemittanceHistoryEntry, error) {
	var e model.RemittanceHistoryEntry
	err := r.db.WithContext(ctx).Preload("Tickets").First(&e, "id = ?", id).Error
	return &e, err
}

func (r *remittanceHistoryRepo) LatestRemitForTicket(ctx context.Context, scheduleID uuid.UUID, controlNumber int) (*model.RemittanceTicket, error) {
	var row model.RemittanceTicket
	err := r.db.WithContext(ctx).
		Joins("JOIN remittance_history ON remittance_history.id = remittance_tickets.entry_id").
		Where("remittance_history.schedule_id = ? AND remittance_history.action_type = ? AND remittance_tickets.control_number = ?",
			scheduleID, model.ActionRemit, controlNumber).
		Order("remittance_history.created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
