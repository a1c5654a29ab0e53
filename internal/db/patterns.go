package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pensieve-dev/pensieve/pkg/models"
)

// PatternStore provides pattern-related ledger operations.
type PatternStore struct {
	store *Store
}

// NewPatternStore creates a new pattern store.
func NewPatternStore(store *Store) *PatternStore {
	return &PatternStore{store: store}
}

// LogResult reports what a Log call did.
type LogResult struct {
	Pattern *models.Pattern
	Created bool // true if this call inserted the pattern
}

// Log upserts a pattern by name. A new name is inserted with times_seen 1;
// an existing name gets its description replaced and times_seen incremented.
// The lookup and write run in one transaction so two loggers cannot both see
// "absent"; if a concurrent first-time insert still slips in between
// transactions, the unique constraint fires and the call retries once as an
// update.
func (s *PatternStore) Log(ctx context.Context, name, description string, tags []string) (*LogResult, error) {
	result, err := s.tryLog(ctx, name, description, tags)
	if errors.Is(err, ErrDuplicate) {
		result, err = s.tryLog(ctx, name, description, tags)
	}
	return result, err
}

func (s *PatternStore) tryLog(ctx context.Context, name, description string, tags []string) (*LogResult, error) {
	var result LogResult

	err := s.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Pattern
		err := tx.Where("name = ?", name).First(&existing).Error
		if err == nil {
			existing.Description = description
			existing.TimesSeen++
			if err := tx.Model(&Pattern{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"description": description,
					"times_seen":  existing.TimesSeen,
				}).Error; err != nil {
				return err
			}
			result.Pattern = toModelPattern(&existing)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		row := Pattern{
			Name:        name,
			Description: description,
			Tags:        models.JoinTags(tags),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		result.Pattern = toModelPattern(&row)
		result.Created = true
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return &result, nil
}

// GetByName retrieves a pattern by its unique name.
// Returns ErrNotFound if absent.
func (s *PatternStore) GetByName(ctx context.Context, name string) (*models.Pattern, error) {
	var row Pattern
	err := s.store.DB.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toModelPattern(&row), nil
}

// MostSeen returns patterns ordered by how often they have been logged.
func (s *PatternStore) MostSeen(ctx context.Context, limit int) ([]*models.Pattern, error) {
	if limit <= 0 {
		limit = 20
	}
	var dbPatterns []Pattern
	err := s.store.DB.WithContext(ctx).
		Order("times_seen DESC, id ASC").
		Limit(limit).
		Find(&dbPatterns).Error
	if err != nil {
		return nil, translateErr(err)
	}
	result := make([]*models.Pattern, len(dbPatterns))
	for i := range dbPatterns {
		result[i] = toModelPattern(&dbPatterns[i])
	}
	return result, nil
}
