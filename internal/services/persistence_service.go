package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tabletalk/voicegate/internal/cache"
	"github.com/tabletalk/voicegate/internal/models"
	pgrepo "github.com/tabletalk/voicegate/internal/repositories/postgres"
	"github.com/tabletalk/voicegate/internal/utils"
)

const menuCacheTTL = 5 * time.Minute

// PersistenceService implements the §6.2 persistence collaborator
// contract: resolving a QR token to menu context, and recording orders
// and check requests. It is the only component in the engine that
// touches the relational store.
type PersistenceService interface {
	GetMenu(ctx context.Context, qrToken string) (*models.MenuContext, error)
	PlaceOrder(ctx context.Context, qrToken string, items []models.OrderLine) (*models.Order, error)
	RequestCheck(ctx context.Context, qrToken string) error
}

type persistenceService struct {
	menus  pgrepo.MenuRepository
	orders pgrepo.OrderRepository
	cache  cache.Cache
}

func NewPersistenceService(menus pgrepo.MenuRepository, orders pgrepo.OrderRepository, c cache.Cache) PersistenceService {
	return &persistenceService{menus: menus, orders: orders, cache: c}
}

func (s *persistenceService) GetMenu(ctx context.Context, qrToken string) (*models.MenuContext, error) {
	const op = "PersistenceService.GetMenu"

	if qrToken == "" {
		return nil, utils.E(utils.CodeInvalidInput, op, "qr_token is required", nil)
	}

	cacheKey := "menu:" + qrToken
	var cached models.MenuContext
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	table, err := s.menus.TableByQRToken(ctx, qrToken)
	if err != nil {
		return nil, err
	}

	restaurant, err := s.menus.RestaurantByID(ctx, table.RestaurantID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve restaurant", err)
	}

	products, err := s.menus.ProductsByRestaurant(ctx, table.RestaurantID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list products", err)
	}

	menu := &models.MenuContext{
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		TableID:        table.ID,
		TableLabel:     table.Label,
		Products:       products,
	}
	menu.ContentHash = contentHash(products)

	// best-effort cache write; a miss on the next call just re-hits postgres.
	_ = s.cache.SetJSON(ctx, cacheKey, menu, menuCacheTTL)

	return menu, nil
}

func (s *persistenceService) PlaceOrder(ctx context.Context, qrToken string, items []models.OrderLine) (*models.Order, error) {
	const op = "PersistenceService.PlaceOrder"

	if qrToken == "" {
		return nil, utils.E(utils.CodeInvalidInput, op, "qr_token is required", nil)
	}
	if len(items) == 0 {
		return nil, utils.E(utils.CodeInvalidInput, op, "at least one order line is required", nil)
	}

	table, err := s.menus.TableByQRToken(ctx, qrToken)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to marshal order items", err)
	}

	order := &models.Order{
		ID:           uuid.NewString(),
		RestaurantID: table.RestaurantID,
		TableID:      table.ID,
		Items:        payload,
		Status:       "open",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist order", err)
	}
	return order, nil
}

func (s *persistenceService) RequestCheck(ctx context.Context, qrToken string) error {
	const op = "PersistenceService.RequestCheck"

	if qrToken == "" {
		return utils.E(utils.CodeInvalidInput, op, "qr_token is required", nil)
	}

	table, err := s.menus.TableByQRToken(ctx, qrToken)
	if err != nil {
		return err
	}
	if err := s.orders.MarkCheckRequested(ctx, table.ID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to mark check requested", err)
	}
	return nil
}

func contentHash(products []models.Product) string {
	h := sha256.New()
	for _, p := range products {
		h.Write([]byte(p.ID))
		h.Write([]byte(p.Name))
	}
	return hex.EncodeToString(h.Sum(nil))
}
