package db

import (
	"context"
	"database/sql"

	"github.com/pensieve-dev/pensieve/pkg/models"
)

// SessionStore provides session-related ledger operations.
type SessionStore struct {
	store *Store
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{store: store}
}

// EnsureSession creates a session row if it does not already exist.
// INSERT OR IGNORE makes this safe under concurrent dispatch from multiple
// processes racing on the same id: duplicates silently no-op, never error.
// Existing rows are never updated; a session's attributes are fixed at first
// reference.
func (s *SessionStore) EnsureSession(ctx context.Context, id, projectPath string) error {
	ts, epoch := nowUTC()

	const query = `
		INSERT OR IGNORE INTO sessions (id, started_at, started_at_epoch, project_path)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.store.GetRawDB().ExecContext(ctx, query,
		id, ts, epoch, nullString(projectPath),
	)
	return translateErr(err)
}

// Get retrieves a session by id. Returns ErrNotFound if it does not exist.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var sess Session
	err := s.store.DB.WithContext(ctx).First(&sess, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toModelSession(&sess), nil
}

// Latest retrieves the most recently started session.
// Returns ErrNotFound when the ledger has no sessions at all.
func (s *SessionStore) Latest(ctx context.Context) (*models.Session, error) {
	var sess Session
	err := s.store.DB.WithContext(ctx).
		Order("started_at_epoch DESC").
		First(&sess).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return toModelSession(&sess), nil
}

// Activity aggregates counts of everything recorded during a session, plus
// the names of concepts learned, in capture order.
func (s *SessionStore) Activity(ctx context.Context, id string) (*models.SessionActivity, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	activity := &models.SessionActivity{Session: *sess}

	counts := []struct {
		model interface{}
		dst   *int
	}{
		{&Response{}, &activity.Responses},
		{&CodeChange{}, &activity.CodeChanges},
		{&Command{}, &activity.Commands},
		{&Concept{}, &activity.Concepts},
	}
	for _, c := range counts {
		var n int64
		err := s.store.DB.WithContext(ctx).
			Model(c.model).
			Where("session_id = ?", id).
			Count(&n).Error
		if err != nil {
			return nil, translateErr(err)
		}
		*c.dst = int(n)
	}

	var names []string
	err = s.store.DB.WithContext(ctx).
		Model(&Concept{}).
		Where("session_id = ?", id).
		Order("created_at_epoch ASC, id ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, translateErr(err)
	}
	activity.ConceptNames = names

	return activity, nil
}

// nullString converts a string to sql.NullString, empty meaning NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
