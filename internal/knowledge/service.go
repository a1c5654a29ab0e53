// Package knowledge exposes the interactive operations layered on the
// ledger: logging concepts, patterns, and gotchas, querying, and review
// bookkeeping. Each operation is one synchronous call sharing the ledger's
// invariants with the passive capture path.
package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pensieve-dev/pensieve/internal/db"
	"github.com/pensieve-dev/pensieve/pkg/models"
)

// Service implements the knowledge API over an open store handle.
type Service struct {
	store    *db.Store
	sessions *db.SessionStore
	concepts *db.ConceptStore
	patterns *db.PatternStore
	gotchas  *db.GotchaStore
}

// NewService creates a knowledge service over the given store.
func NewService(store *db.Store) *Service {
	return &Service{
		store:    store,
		sessions: db.NewSessionStore(store),
		concepts: db.NewConceptStore(store),
		patterns: db.NewPatternStore(store),
		gotchas:  db.NewGotchaStore(store),
	}
}

// LogConcept inserts a concept with interactive provenance and returns its
// new id.
func (s *Service) LogConcept(ctx context.Context, name, explanation, codeExample string, tags []string) (int64, error) {
	if name == "" || explanation == "" {
		return 0, fmt.Errorf("concept name and explanation are required")
	}
	id, err := s.concepts.Insert(ctx, &models.Concept{
		Name:        name,
		Explanation: explanation,
		CodeExample: codeExample,
		Tags:        models.JoinTags(tags),
		Source:      models.SourceInteractive,
	})
	if err != nil {
		return 0, err
	}
	log.Debug().Int64("concept_id", id).Str("name", name).Msg("concept logged")
	return id, nil
}

// PatternResult reports what LogPattern did.
type PatternResult struct {
	Name      string
	Created   bool // false means an existing pattern was updated
	TimesSeen int
}

// LogPattern upserts a pattern by name: first call inserts, later calls
// replace the description and increment the seen count.
func (s *Service) LogPattern(ctx context.Context, name, description string, tags []string) (*PatternResult, error) {
	if name == "" || description == "" {
		return nil, fmt.Errorf("pattern name and description are required")
	}
	res, err := s.patterns.Log(ctx, name, description, tags)
	if err != nil {
		return nil, err
	}
	return &PatternResult{
		Name:      res.Pattern.Name,
		Created:   res.Created,
		TimesSeen: res.Pattern.TimesSeen,
	}, nil
}

// GotchaResult reports a logged gotcha and whether the concept link
// resolved. An unresolved link is informational, not a failure.
type GotchaResult struct {
	ID       int64
	Severity models.Severity
	Linked   bool
	// Note is a short status for the caller when the named concept could
	// not be resolved.
	Note string
}

// LogGotcha inserts a gotcha, resolving conceptName to the most recent
// concept with that exact name when given. An unresolvable name stores the
// gotcha unlinked and reports it in the result.
func (s *Service) LogGotcha(ctx context.Context, description, codeExample string, severity models.Severity, conceptName string) (*GotchaResult, error) {
	if description == "" {
		return nil, fmt.Errorf("gotcha description is required")
	}
	if severity == "" {
		severity = models.SeverityWarning
	}
	if !severity.Valid() {
		return nil, fmt.Errorf("invalid severity %q: must be danger, warning, or info", severity)
	}

	result := &GotchaResult{Severity: severity}
	var conceptID sql.NullInt64
	if conceptName != "" {
		concept, err := s.concepts.FindByName(ctx, conceptName)
		switch {
		case err == nil:
			conceptID = sql.NullInt64{Int64: concept.ID, Valid: true}
			result.Linked = true
		case errors.Is(err, db.ErrNotFound):
			result.Note = fmt.Sprintf("concept %q not found, gotcha saved unlinked", conceptName)
		default:
			return nil, err
		}
	}

	id, err := s.gotchas.Insert(ctx, &models.Gotcha{
		ConceptID:   conceptID,
		Description: description,
		CodeExample: codeExample,
		Severity:    severity,
	})
	if err != nil {
		return nil, err
	}
	result.ID = id
	return result, nil
}

// QueryConcepts searches the ledger: full-text when search is given, tag
// filter when tags are given, most-recent otherwise. Always bounded by
// limit.
func (s *Service) QueryConcepts(ctx context.Context, search string, tags []string, limit int) ([]*models.Concept, error) {
	switch {
	case search != "":
		return s.concepts.Search(ctx, search, limit)
	case len(tags) > 0:
		return s.concepts.FilterByTags(ctx, tags, limit)
	default:
		return s.concepts.Recent(ctx, limit)
	}
}

// ReviewResult identifies the concept a review was recorded against.
type ReviewResult struct {
	ID   int64
	Name string
}

// MarkReviewed resolves a concept by id (taking precedence) or name and
// bumps its review count. Returns db.ErrNotFound when neither resolves;
// callers report that as a result, not a crash.
func (s *Service) MarkReviewed(ctx context.Context, conceptID int64, conceptName string) (*ReviewResult, error) {
	var concept *models.Concept
	var err error
	switch {
	case conceptID > 0:
		concept, err = s.concepts.GetByID(ctx, conceptID)
	case conceptName != "":
		concept, err = s.concepts.FindByName(ctx, conceptName)
	default:
		return nil, fmt.Errorf("%w: provide a concept id or name", db.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.concepts.MarkReviewed(ctx, concept.ID); err != nil {
		return nil, err
	}
	return &ReviewResult{ID: concept.ID, Name: concept.Name}, nil
}

// LearningGaps returns concepts never reviewed or last reviewed more than
// the given number of days ago, least-reviewed first.
func (s *Service) LearningGaps(ctx context.Context, days int, limit int) ([]*models.Concept, error) {
	return s.concepts.LearningGaps(ctx, days, limit)
}

// SessionSummary aggregates activity for the named session, or the most
// recently started one when sessionID is empty. Returns db.ErrNotFound when
// the ledger has no matching session.
func (s *Service) SessionSummary(ctx context.Context, sessionID string) (*models.SessionActivity, error) {
	if sessionID == "" {
		latest, err := s.sessions.Latest(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = latest.ID
	}
	return s.sessions.Activity(ctx, sessionID)
}

// Stats returns global counts across all ledger tables.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	return s.store.Stats(ctx)
}
