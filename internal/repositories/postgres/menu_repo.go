package postgres

import (
	"context"

	"github.com/tabletalk/voicegate/internal/models"
	"github.com/tabletalk/voicegate/internal/utils"
	"gorm.io/gorm"
)

// MenuRepository is the read side of the persistence collaborator
// (§6.2 GetMenu): resolving a QR token to its table/restaurant and
// listing that restaurant's products.
type MenuRepository interface {
	TableByQRToken(ctx context.Context, qrToken string) (*models.Table, error)
	RestaurantByID(ctx context.Context, id string) (*models.Restaurant, error)
	ProductsByRestaurant(ctx context.Context, restaurantID string) ([]models.Product, error)
}

type menuRepo struct {
	db *gorm.DB
}

func NewMenuRepo(db *gorm.DB) MenuRepository {
	return &menuRepo{db: db}
}

func (r *menuRepo) TableByQRToken(ctx context.Context, qrToken string) (*models.Table, error) {
	var t models.Table
	err := r.db.WithContext(ctx).Where("qr_token = ?", qrToken).Take(&t).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.E(utils.CodeTableUnknown, "MenuRepository.TableByQRToken", "unknown qr_token", err)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *menuRepo) RestaurantByID(ctx context.Context, id string) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rest).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.E(utils.CodeNotFound, "MenuRepository.RestaurantByID", "restaurant not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *menuRepo) ProductsByRestaurant(ctx context.Context, restaurantID string) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("name ASC").
		Find(&out).Error
	return out, err
}
