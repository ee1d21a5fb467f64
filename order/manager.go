package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/beenest/bmg/content"
	"github.com/beenest/bmg/gateway"

	"github.com/go-redis/redis/v7"
	"github.com/google/uuid"
	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotFound signals a missing magazine or customer record.
var ErrNotFound = errors.New("record not found")

const (
	priceCacheTTL = 10 * time.Minute
	currencyINR   = "INR"

	statusPaid = "paid"
	statusCOD  = "cod"

	methodOnline = "online"
)

// ManagerOptions contains the configuration for the order Manager
type ManagerOptions struct {
	Gateway      gateway.Client
	ContentStore *content.Store
	Redis        redis.UniversalClient
	Logger       *zap.Logger
}

// Manager handles checkout orders against the gateway and content store
type Manager struct {
	ManagerOptions
}

// NewManager will create an order Manager
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.Gateway == nil {
		return nil, fmt.Errorf("nil Gateway is invalid")
	}
	if option.ContentStore == nil {
		return nil, fmt.Errorf("nil ContentStore is invalid")
	}
	if option.Redis == nil {
		return nil, fmt.Errorf("nil Redis is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Manager{
		ManagerOptions: option,
	}, nil
}

type cachedMagazine struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

// magazine returns title and price, preferring the redis cache. Cache
// failures fall through to the content store.
func (m *Manager) magazine(ctx context.Context, magazineID string) (*cachedMagazine, error) {
	key := "magazine:price:" + magazineID

	if raw, err := m.Redis.Get(key).Result(); err == nil {
		var cached cachedMagazine
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
	} else if err != redis.Nil {
		m.Logger.Warn("Redis lookup failed, falling through to content store",
			zap.Error(err),
		)
	}

	mag, err := m.ContentStore.Magazine(ctx, magazineID)
	if err != nil {
		return nil, err
	}
	if mag == nil || mag.Price == 0 {
		return nil, ErrNotFound
	}

	cached := &cachedMagazine{
		Title: mag.Title,
		Price: mag.Price,
	}
	if raw, err := json.Marshal(cached); err == nil {
		if err := m.Redis.Set(key, raw, priceCacheTTL).Err(); err != nil {
			m.Logger.Warn("Unable to cache magazine price",
				zap.Error(err),
			)
		}
	}
	return cached, nil
}

// MagazineOrder is a gateway order created for a single magazine.
type MagazineOrder struct {
	OrderID       string
	Amount        int64
	MagazineTitle string
}

// CreateMagazineOrder prices the magazine from the content store and
// opens a gateway order in currency subunits.
func (m *Manager) CreateMagazineOrder(ctx context.Context, magazineID string) (*MagazineOrder, error) {
	mag, err := m.magazine(ctx, magazineID)
	if err != nil {
		return nil, err
	}

	created, err := m.Gateway.CreateOrder(ctx, gateway.OrderSpec{
		Amount:   mag.Price * 100, // rupees to paise
		Currency: currencyINR,
		Receipt:  fmt.Sprintf("mag_%s_%s", magazineID, uuid.New().String()),
	})
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot create magazine order")
	}

	return &MagazineOrder{
		OrderID:       created.ID,
		Amount:        created.Amount,
		MagazineTitle: mag.Title,
	}, nil
}

// CreateOrder opens a gateway order for a raw subunit amount.
func (m *Manager) CreateOrder(ctx context.Context, amount int64) (*gateway.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	created, err := m.Gateway.CreateOrder(ctx, gateway.OrderSpec{
		Amount:   amount,
		Currency: currencyINR,
		Receipt:  "order_rcptid_" + uuid.New().String(),
	})
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot create order")
	}
	return created, nil
}

// ShippingInfo is the delivery contact for a placed order.
type ShippingInfo struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// PlaceOption describes a full checkout to persist.
type PlaceOption struct {
	ClerkID       string
	Shipping      ShippingInfo
	Total         int64
	PaymentMethod string
}

// PlacedOrder is the persisted result of a checkout.
type PlacedOrder struct {
	OrderID         string
	RazorpayOrderID string
	OrderStatus     string
}

// Place persists a checkout: customer lookup, an optional gateway order
// for online payment, then the content-store order record.
func (m *Manager) Place(ctx context.Context, opt PlaceOption) (*PlacedOrder, error) {
	cust, err := m.ContentStore.GetByClerkID(ctx, opt.ClerkID)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		return nil, ErrNotFound
	}

	orderStatus := statusCOD
	var razorpayOrderID string
	if opt.PaymentMethod == methodOnline {
		orderStatus = statusPaid
		created, err := m.Gateway.CreateOrder(ctx, gateway.OrderSpec{
			Amount:   opt.Total * 100, // rupees to paise
			Currency: currencyINR,
			Receipt:  "receipt_" + uuid.New().String(),
		})
		if err != nil {
			return nil, extErrors.Wrap(err, "Cannot create gateway order for checkout")
		}
		razorpayOrderID = created.ID
	}

	orderID, err := m.ContentStore.CreateOrder(ctx, content.OrderCreate{
		ClerkID:            opt.ClerkID,
		CustomerID:         cust.ID,
		TotalAmount:        opt.Total,
		ShippingName:       opt.Shipping.Name,
		ShippingEmail:      opt.Shipping.Email,
		ShippingPhone:      opt.Shipping.Phone,
		ShippingAddress:    opt.Shipping.Address,
		PaymentMethod:      opt.PaymentMethod,
		OrderStatus:        orderStatus,
		RazorpayCheckoutID: razorpayOrderID,
	})
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot persist order")
	}

	return &PlacedOrder{
		OrderID:         orderID,
		RazorpayOrderID: razorpayOrderID,
		OrderStatus:     orderStatus,
	}, nil
}
