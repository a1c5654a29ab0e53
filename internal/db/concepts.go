package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pensieve-dev/pensieve/pkg/models"
)

// ConceptStore provides concept-related ledger operations. Every write path
// here flows through the concepts table, whose FTS triggers keep the search
// index consistent within the same transaction.
type ConceptStore struct {
	store *Store
}

// NewConceptStore creates a new concept store.
func NewConceptStore(store *Store) *ConceptStore {
	return &ConceptStore{store: store}
}

// Insert stores a new concept and returns its id. A non-null session
// reference must name an existing session row or the insert fails.
func (s *ConceptStore) Insert(ctx context.Context, c *models.Concept) (int64, error) {
	row := Concept{
		SessionID:      c.SessionID,
		CreatedAt:      c.CreatedAt,
		CreatedAtEpoch: c.CreatedAtEpoch,
		Name:           c.Name,
		Explanation:    c.Explanation,
		CodeExample:    c.CodeExample,
		Tags:           c.Tags,
		Source:         string(c.Source),
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, translateErr(err)
	}
	return row.ID, nil
}

// Update rewrites a concept's content fields. This is the administrative
// path; interactive callers only mutate concepts through MarkReviewed. The
// FTS update trigger removes the old index entry and adds the new one in the
// same statement.
func (s *ConceptStore) Update(ctx context.Context, id int64, name, explanation, tags string) error {
	result := s.store.DB.WithContext(ctx).
		Model(&Concept{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":        name,
			"explanation": explanation,
			"tags":        tags,
		})
	if result.Error != nil {
		return translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a concept; the FTS delete trigger drops its index entry
// atomically. Deleting a concept that a gotcha still links to fails with
// ErrDuplicate (the foreign key holds).
func (s *ConceptStore) Delete(ctx context.Context, id int64) error {
	result := s.store.DB.WithContext(ctx).Delete(&Concept{}, id)
	if result.Error != nil {
		return translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a concept by id. Returns ErrNotFound if absent.
func (s *ConceptStore) GetByID(ctx context.Context, id int64) (*models.Concept, error) {
	var row Concept
	err := s.store.DB.WithContext(ctx).First(&row, id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toModelConcept(&row), nil
}

// FindByName retrieves the most recently created concept with exactly this
// name. Returns ErrNotFound if no concept has the name.
func (s *ConceptStore) FindByName(ctx context.Context, name string) (*models.Concept, error) {
	var row Concept
	err := s.store.DB.WithContext(ctx).
		Where("name = ?", name).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toModelConcept(&row), nil
}

// Search runs a full-text query over concept names, explanations, and tags,
// ranked by FTS5 relevance with recency as the tie-break.
func (s *ConceptStore) Search(ctx context.Context, query string, limit int) ([]*models.Concept, error) {
	if limit <= 0 {
		limit = 20
	}

	// FTS5 MATCH needs raw SQL; GORM cannot express it.
	const ftsQuery = `
		SELECT c.id, c.session_id, c.created_at, c.created_at_epoch,
		       c.name, c.explanation, c.code_example, c.tags, c.source,
		       c.reviewed_at, c.review_count
		FROM concepts c
		JOIN concepts_fts fts ON c.id = fts.rowid
		WHERE fts MATCH ?
		ORDER BY fts.rank, c.created_at_epoch DESC
		LIMIT ?
	`
	rows, err := s.store.GetRawDB().QueryContext(ctx, ftsQuery, query, limit)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	return scanConceptRows(rows)
}

// FilterByTags returns concepts whose tag list contains any of the given
// tags, most recent first. Matching is case-insensitive substring per tag,
// the documented simplification of the flat tag column.
func (s *ConceptStore) FilterByTags(ctx context.Context, tags []string, limit int) ([]*models.Concept, error) {
	if limit <= 0 {
		limit = 20
	}

	var conditions []string
	var args []interface{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		conditions = append(conditions, "tags LIKE ?")
		args = append(args, "%"+t+"%")
	}
	if len(conditions) == 0 {
		return s.Recent(ctx, limit)
	}

	var dbConcepts []Concept
	err := s.store.DB.WithContext(ctx).
		Where(strings.Join(conditions, " OR "), args...).
		Order("created_at_epoch DESC, id DESC").
		Limit(limit).
		Find(&dbConcepts).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toModelConcepts(dbConcepts), nil
}

// Recent returns the most recently created concepts.
func (s *ConceptStore) Recent(ctx context.Context, limit int) ([]*models.Concept, error) {
	if limit <= 0 {
		limit = 20
	}
	var dbConcepts []Concept
	err := s.store.DB.WithContext(ctx).
		Order("created_at_epoch DESC, id DESC").
		Limit(limit).
		Find(&dbConcepts).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toModelConcepts(dbConcepts), nil
}

// MarkReviewed bumps a concept's review count and sets the review timestamp
// to now. Returns ErrNotFound if the id does not exist.
func (s *ConceptStore) MarkReviewed(ctx context.Context, id int64) error {
	ts, _ := nowUTC()
	result := s.store.DB.WithContext(ctx).
		Model(&Concept{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reviewed_at":  ts,
			"review_count": gorm.Expr("review_count + 1"),
		})
	if result.Error != nil {
		return translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LearningGaps returns concepts never reviewed or last reviewed before the
// cutoff, least-reviewed first and most recent within equal counts.
func (s *ConceptStore) LearningGaps(ctx context.Context, days int, limit int) ([]*models.Concept, error) {
	if limit <= 0 {
		limit = 20
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	var dbConcepts []Concept
	err := s.store.DB.WithContext(ctx).
		Where("reviewed_at IS NULL OR reviewed_at < ?", cutoff).
		Order("review_count ASC, created_at_epoch DESC").
		Limit(limit).
		Find(&dbConcepts).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toModelConcepts(dbConcepts), nil
}

// scanConceptRows scans concepts from raw SQL rows.
func scanConceptRows(rows *sql.Rows) ([]*models.Concept, error) {
	var concepts []*models.Concept
	for rows.Next() {
		var c models.Concept
		if err := rows.Scan(
			&c.ID, &c.SessionID, &c.CreatedAt, &c.CreatedAtEpoch,
			&c.Name, &c.Explanation, &c.CodeExample, &c.Tags, &c.Source,
			&c.ReviewedAt, &c.ReviewCount,
		); err != nil {
			return nil, err
		}
		concepts = append(concepts, &c)
	}
	return concepts, rows.Err()
}
