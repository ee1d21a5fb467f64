package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Manager handles the database operations for membership snapshots
type Manager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewManager returns a new Manager for the snapshot ledger
func NewManager(logger *zap.Logger, db *gorm.DB) (*Manager, error) {
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initilize ledger.Manager")
	}
	return &Manager{
		db:     db,
		logger: logger,
	}, nil
}

// Record upserts the snapshot keyed by subscription id (last write wins).
func (m *Manager) Record(ctx context.Context, snap Snapshot) error {
	result := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscription_id"}},
		UpdateAll: true,
	}).Create(&snap)
	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot record membership snapshot")
	}
	return nil
}

// ListOption filters the snapshot listing
type ListOption struct {
	ClerkID      string
	OnlyDiverged bool
	Before       time.Time
	Limit        int
}

// List returns snapshots, most recently updated first.
func (m *Manager) List(ctx context.Context, opt ListOption) ([]Snapshot, error) {
	baseQuery := m.db.WithContext(ctx).Order("updated_at desc")
	if len(opt.ClerkID) > 0 {
		baseQuery = baseQuery.Where("clerk_id = ?", opt.ClerkID)
	}
	if opt.OnlyDiverged {
		baseQuery = baseQuery.Where("content_synced = ?", false)
	}
	if !opt.Before.IsZero() {
		baseQuery = baseQuery.Where("updated_at < ?", opt.Before)
	}
	if opt.Limit > 0 {
		baseQuery = baseQuery.Limit(opt.Limit)
	}

	results := make([]Snapshot, 0, 1)
	result := baseQuery.Find(&results)
	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, result.Error
	}
	return results, nil
}

// UpdateStatus overwrites status and expiry on an existing snapshot.
// Missing rows are left alone; the webhook flow has no customer context to
// create one from.
func (m *Manager) UpdateStatus(ctx context.Context, subscriptionID, status string, expiresAt *string) error {
	result := m.db.WithContext(ctx).Model(&Snapshot{}).
		Where("subscription_id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"status":     status,
			"expires_at": expiresAt,
			"source":     SourceWebhook,
		})
	if result.Error != nil {
		m.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot update membership snapshot")
	}
	return nil
}

// Get returns the snapshot for a subscription id, or nil if none exists.
func (m *Manager) Get(ctx context.Context, subscriptionID string) (*Snapshot, error) {
	if len(subscriptionID) == 0 {
		return nil, fmt.Errorf("subscriptionID is required")
	}
	var snap Snapshot
	result := m.db.WithContext(ctx).First(&snap, "subscription_id = ?", subscriptionID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &snap, nil
}
