package capture

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pensieve-dev/pensieve/internal/db"
	"github.com/pensieve-dev/pensieve/pkg/models"
)

// sourceRootMarker is the conventional path segment used to derive a
// project path from an edited file's location.
const sourceRootMarker = "src"

// Dispatcher routes decoded events to ledger writes.
type Dispatcher struct {
	sessions *db.SessionStore
	concepts *db.ConceptStore
	activity *db.ActivityStore
}

// New creates a dispatcher writing to the given store.
func New(store *db.Store) *Dispatcher {
	return &Dispatcher{
		sessions: db.NewSessionStore(store),
		concepts: db.NewConceptStore(store),
		activity: db.NewActivityStore(store),
	}
}

// Dispatch classifies one event and issues the corresponding ledger writes.
// It never returns an error and never panics past its own boundary: the
// caller is an editor hook that cannot handle failures, so problems are
// logged and swallowed. Partial writes on failure are acceptable.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) {
	logger := log.With().
		Str("dispatch_id", uuid.NewString()).
		Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("event dispatch panicked")
		}
	}()

	if ev == nil {
		logger.Debug().Msg("nil event, ignoring")
		return
	}
	logger = logger.With().Str("event_type", ev.EventType).Logger()

	var err error
	switch ev.EventType {
	case EventAssistantResponse:
		err = d.handleAssistantResponse(ctx, ev, logger)
	case EventCodeWrite:
		err = d.handleCodeWrite(ctx, ev, logger)
	case EventCommandRun:
		err = d.handleCommandRun(ctx, ev, logger)
	default:
		logger.Debug().Msg("unrecognized event type, ignoring")
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("event dispatch failed")
	}
}

func (d *Dispatcher) handleAssistantResponse(ctx context.Context, ev *Event, logger zerolog.Logger) error {
	text := ev.ToolInfo.Response
	if text == "" {
		return nil
	}

	sessionID := d.sessionID(ev)
	if err := d.sessions.EnsureSession(ctx, sessionID, ""); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}

	if _, err := d.activity.InsertResponse(ctx, sessionID, eventTimestamp(ev), text); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}

	n, err := d.insertAnnotations(ctx, sessionID, text)
	if err != nil {
		return fmt.Errorf("insert annotations: %w", err)
	}
	if n > 0 {
		logger.Debug().Int("concepts", n).Str("session_id", sessionID).Msg("captured annotated concepts")
	}
	return nil
}

func (d *Dispatcher) handleCodeWrite(ctx context.Context, ev *Event, logger zerolog.Logger) error {
	filePath := ev.ToolInfo.FilePath
	if filePath == "" {
		return nil
	}

	sessionID := d.sessionID(ev)
	if err := d.sessions.EnsureSession(ctx, sessionID, projectFromPath(filePath)); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}

	timestamp := eventTimestamp(ev)
	for _, edit := range ev.ToolInfo.Edits {
		change := &models.CodeChange{
			SessionID: sessionID,
			CreatedAt: timestamp,
			FilePath:  filePath,
			OldCode:   nullableText(edit.OldString),
			NewCode:   nullableText(edit.NewString),
		}
		if _, err := d.activity.InsertCodeChange(ctx, change); err != nil {
			return fmt.Errorf("insert code change: %w", err)
		}
		if _, err := d.insertAnnotations(ctx, sessionID, edit.NewString); err != nil {
			return fmt.Errorf("insert annotations: %w", err)
		}
	}
	logger.Debug().Int("edits", len(ev.ToolInfo.Edits)).Str("file_path", filePath).Msg("captured code write")
	return nil
}

func (d *Dispatcher) handleCommandRun(ctx context.Context, ev *Event, logger zerolog.Logger) error {
	commandLine := ev.ToolInfo.CommandLine
	if commandLine == "" {
		return nil
	}

	sessionID := d.sessionID(ev)
	// The working directory, when present, seeds the session's project path.
	if err := d.sessions.EnsureSession(ctx, sessionID, ev.ToolInfo.CWD); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}

	if _, err := d.activity.InsertCommand(ctx, sessionID, eventTimestamp(ev), commandLine, ev.ToolInfo.CWD); err != nil {
		return fmt.Errorf("insert command: %w", err)
	}
	logger.Debug().Str("session_id", sessionID).Msg("captured command")
	return nil
}

// insertAnnotations stores one hook-provenance concept per learning
// annotation found in text, returning how many were inserted.
func (d *Dispatcher) insertAnnotations(ctx context.Context, sessionID, text string) (int, error) {
	annotations := ExtractAnnotations(text)
	for _, learned := range annotations {
		concept := &models.Concept{
			SessionID:   sql.NullString{String: sessionID, Valid: true},
			Name:        conceptName(learned),
			Explanation: learned,
			Source:      models.SourceHook,
		}
		if _, err := d.concepts.Insert(ctx, concept); err != nil {
			return 0, err
		}
	}
	return len(annotations), nil
}

// sessionID derives the session id from the event's trajectory identifier,
// synthesizing a time-based one when absent. Synthesized ids may collide
// across near-simultaneous events; EnsureSession tolerates that.
func (d *Dispatcher) sessionID(ev *Event) string {
	if ev.TrajectoryID != "" {
		return ev.TrajectoryID
	}
	return "session-" + time.Now().UTC().Format(time.RFC3339)
}

// eventTimestamp returns the event's own timestamp, or now if it has none.
func eventTimestamp(ev *Event) string {
	if ev.Timestamp != "" {
		return ev.Timestamp
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	return ts
}

// projectFromPath derives a project path by locating the conventional
// source-root segment in the file path. "/home/u/app/src/main.py" yields
// "/home/u/app"; a path with no such segment yields no project.
func projectFromPath(filePath string) string {
	parts := strings.Split(filepath.ToSlash(filePath), "/")
	for i, p := range parts {
		if p != sourceRootMarker {
			continue
		}
		if i == 0 {
			return ""
		}
		project := path.Join(parts[:i]...)
		if strings.HasPrefix(filePath, "/") && !strings.HasPrefix(project, "/") {
			project = "/" + project
		}
		return project
	}
	return ""
}

// nullableText converts captured text to its nullable storage form;
// empty text is stored as NULL.
func nullableText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
