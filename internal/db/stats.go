package db

import (
	"context"

	"github.com/pensieve-dev/pensieve/pkg/models"
)

// Stats returns global row counts across all ledger tables.
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats

	counts := []struct {
		model interface{}
		dst   *int
	}{
		{&Session{}, &stats.Sessions},
		{&Response{}, &stats.Responses},
		{&CodeChange{}, &stats.CodeChanges},
		{&Command{}, &stats.Commands},
		{&Concept{}, &stats.Concepts},
		{&Pattern{}, &stats.Patterns},
		{&Gotcha{}, &stats.Gotchas},
	}
	for _, c := range counts {
		var n int64
		if err := s.DB.WithContext(ctx).Model(c.model).Count(&n).Error; err != nil {
			return nil, translateErr(err)
		}
		*c.dst = int(n)
	}

	var reviewed int64
	err := s.DB.WithContext(ctx).
		Model(&Concept{}).
		Where("reviewed_at IS NOT NULL").
		Count(&reviewed).Error
	if err != nil {
		return nil, translateErr(err)
	}
	stats.ReviewedConcepts = int(reviewed)

	return &stats, nil
}
