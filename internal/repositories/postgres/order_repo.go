package postgres

import (
	"context"

	"github.com/tabletalk/voicegate/internal/models"
	"github.com/tabletalk/voicegate/internal/utils"
	"gorm.io/gorm"
)

// OrderRepository is the write side of the persistence collaborator
// (§6.2 PlaceOrder / RequestCheck).
type OrderRepository interface {
	Insert(ctx context.Context, o *models.Order) error
	MarkCheckRequested(ctx context.Context, tableID string) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Insert(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) MarkCheckRequested(ctx context.Context, tableID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("table_id = ? AND status = ?", tableID, "open").
		Update("status", "check_requested")
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.E(utils.CodeNotFound, "OrderRepository.MarkCheckRequested", "no open order for table", nil)
	}
	return nil
}
