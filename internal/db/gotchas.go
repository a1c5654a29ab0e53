package db

import (
	"context"

	"github.com/pensieve-dev/pensieve/pkg/models"
)

// GotchaStore provides gotcha-related ledger operations.
type GotchaStore struct {
	store *Store
}

// NewGotchaStore creates a new gotcha store.
func NewGotchaStore(store *Store) *GotchaStore {
	return &GotchaStore{store: store}
}

// Insert stores a new gotcha and returns its id. ConceptID may be null;
// when set it must reference an existing concept row.
func (s *GotchaStore) Insert(ctx context.Context, g *models.Gotcha) (int64, error) {
	row := Gotcha{
		ConceptID:   g.ConceptID,
		Description: g.Description,
		CodeExample: g.CodeExample,
		Severity:    string(g.Severity),
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, translateErr(err)
	}
	return row.ID, nil
}

// ForConcept returns the gotchas linked to a concept, newest first.
func (s *GotchaStore) ForConcept(ctx context.Context, conceptID int64) ([]*models.Gotcha, error) {
	var dbGotchas []Gotcha
	err := s.store.DB.WithContext(ctx).
		Where("concept_id = ?", conceptID).
		Order("id DESC").
		Find(&dbGotchas).Error
	if err != nil {
		return nil, translateErr(err)
	}
	result := make([]*models.Gotcha, len(dbGotchas))
	for i := range dbGotchas {
		result[i] = toModelGotcha(&dbGotchas[i])
	}
	return result, nil
}
