package db

import (
	"context"

	"github.com/pensieve-dev/pensieve/pkg/models"
)

// ActivityStore records the immutable per-session capture rows: responses,
// code changes, and commands. Rows are insert-only; there are no update or
// delete paths by design.
type ActivityStore struct {
	store *Store
}

// NewActivityStore creates a new activity store.
func NewActivityStore(store *Store) *ActivityStore {
	return &ActivityStore{store: store}
}

// InsertResponse records one captured assistant response.
func (s *ActivityStore) InsertResponse(ctx context.Context, sessionID, timestamp, text string) (int64, error) {
	row := Response{
		SessionID:    sessionID,
		CreatedAt:    timestamp,
		ResponseText: text,
		ResponseType: "raw",
	}
	if timestamp != "" {
		row.CreatedAtEpoch = epochFor(timestamp)
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, translateErr(err)
	}
	return row.ID, nil
}

// InsertCodeChange records one captured file edit.
func (s *ActivityStore) InsertCodeChange(ctx context.Context, change *models.CodeChange) (int64, error) {
	row := CodeChange{
		SessionID:      change.SessionID,
		CreatedAt:      change.CreatedAt,
		CreatedAtEpoch: change.CreatedAtEpoch,
		FilePath:       change.FilePath,
		OldCode:        change.OldCode,
		NewCode:        change.NewCode,
		DiffSummary:    change.DiffSummary,
	}
	if row.CreatedAt != "" && row.CreatedAtEpoch == 0 {
		row.CreatedAtEpoch = epochFor(row.CreatedAt)
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, translateErr(err)
	}
	return row.ID, nil
}

// InsertCommand records one captured shell invocation.
func (s *ActivityStore) InsertCommand(ctx context.Context, sessionID, timestamp, commandLine, workingDir string) (int64, error) {
	row := Command{
		SessionID:   sessionID,
		CreatedAt:   timestamp,
		CommandLine: commandLine,
		WorkingDir:  nullString(workingDir),
	}
	if timestamp != "" {
		row.CreatedAtEpoch = epochFor(timestamp)
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, translateErr(err)
	}
	return row.ID, nil
}
