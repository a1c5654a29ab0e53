// Package models contains domain models for pensieve.
package models

import (
	"database/sql"
	"strings"
)

// ConceptSource records where a concept came from.
type ConceptSource string

const (
	// SourceHook marks concepts captured passively by the event dispatcher.
	SourceHook ConceptSource = "hook"
	// SourceInteractive marks concepts logged through the knowledge API.
	SourceInteractive ConceptSource = "mcp"
)

// Severity classifies how dangerous a gotcha is.
type Severity string

const (
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is one of the three known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityDanger, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Session represents one coding/assistant interaction window.
// Sessions are created lazily on first reference and never updated.
type Session struct {
	ID             string         `db:"id" json:"id"`
	StartedAt      string         `db:"started_at" json:"started_at"`
	StartedAtEpoch int64          `db:"started_at_epoch" json:"started_at_epoch"`
	ProjectPath    sql.NullString `db:"project_path" json:"project_path,omitempty"`
	Summary        sql.NullString `db:"summary" json:"summary,omitempty"`
}

// Response is one captured assistant text blob, immutable once written.
type Response struct {
	ID             int64  `db:"id" json:"id"`
	SessionID      string `db:"session_id" json:"session_id"`
	CreatedAt      string `db:"created_at" json:"created_at"`
	CreatedAtEpoch int64  `db:"created_at_epoch" json:"created_at_epoch"`
	ResponseText   string `db:"response_text" json:"response_text"`
	ResponseType   string `db:"response_type" json:"response_type"`
}

// CodeChange is one captured file edit, immutable once written.
type CodeChange struct {
	ID             int64          `db:"id" json:"id"`
	SessionID      string         `db:"session_id" json:"session_id"`
	CreatedAt      string         `db:"created_at" json:"created_at"`
	CreatedAtEpoch int64          `db:"created_at_epoch" json:"created_at_epoch"`
	FilePath       string         `db:"file_path" json:"file_path"`
	OldCode        sql.NullString `db:"old_code" json:"old_code,omitempty"`
	NewCode        sql.NullString `db:"new_code" json:"new_code,omitempty"`
	DiffSummary    sql.NullString `db:"diff_summary" json:"diff_summary,omitempty"`
}

// Command is one captured shell invocation, immutable once written.
type Command struct {
	ID             int64          `db:"id" json:"id"`
	SessionID      string         `db:"session_id" json:"session_id"`
	CreatedAt      string         `db:"created_at" json:"created_at"`
	CreatedAtEpoch int64          `db:"created_at_epoch" json:"created_at_epoch"`
	CommandLine    string         `db:"command_line" json:"command_line"`
	WorkingDir     sql.NullString `db:"working_dir" json:"working_dir,omitempty"`
}

// Concept is one unit of learned knowledge with a review lifecycle.
// Only the review fields are mutable after creation.
type Concept struct {
	ID             int64          `db:"id" json:"id"`
	SessionID      sql.NullString `db:"session_id" json:"session_id,omitempty"`
	CreatedAt      string         `db:"created_at" json:"created_at"`
	CreatedAtEpoch int64          `db:"created_at_epoch" json:"created_at_epoch"`
	Name           string         `db:"name" json:"name"`
	Explanation    string         `db:"explanation" json:"explanation"`
	CodeExample    string         `db:"code_example" json:"code_example,omitempty"`
	Tags           string         `db:"tags" json:"tags,omitempty"`
	Source         ConceptSource  `db:"source" json:"source"`
	ReviewedAt     sql.NullString `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewCount    int            `db:"review_count" json:"review_count"`
}

// Pattern is a named recurring design idea. Name is unique; re-logging an
// existing name replaces the description and increments TimesSeen.
type Pattern struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Description    string `db:"description" json:"description"`
	FirstSeen      string `db:"first_seen" json:"first_seen"`
	FirstSeenEpoch int64  `db:"first_seen_epoch" json:"first_seen_epoch"`
	TimesSeen      int    `db:"times_seen" json:"times_seen"`
	Tags           string `db:"tags" json:"tags,omitempty"`
}

// Gotcha is a pitfall, optionally linked to a concept. The link is nullable:
// a gotcha whose named concept cannot be resolved is stored unlinked.
type Gotcha struct {
	ID          int64         `db:"id" json:"id"`
	ConceptID   sql.NullInt64 `db:"concept_id" json:"concept_id,omitempty"`
	Description string        `db:"description" json:"description"`
	CodeExample string        `db:"code_example" json:"code_example,omitempty"`
	Severity    Severity      `db:"severity" json:"severity"`
}

// SessionActivity aggregates what happened during one session.
type SessionActivity struct {
	Session      Session  `json:"session"`
	Responses    int      `json:"responses"`
	CodeChanges  int      `json:"code_changes"`
	Commands     int      `json:"commands"`
	Concepts     int      `json:"concepts"`
	ConceptNames []string `json:"concept_names,omitempty"`
}

// Stats holds global counts across the ledger.
type Stats struct {
	Sessions         int `json:"sessions"`
	Responses        int `json:"responses"`
	CodeChanges      int `json:"code_changes"`
	Commands         int `json:"commands"`
	Concepts         int `json:"concepts"`
	ReviewedConcepts int `json:"reviewed_concepts"`
	Patterns         int `json:"patterns"`
	Gotchas          int `json:"gotchas"`
}

// ReviewRatio returns the fraction of concepts reviewed at least once.
func (s *Stats) ReviewRatio() float64 {
	if s.Concepts == 0 {
		return 0
	}
	return float64(s.ReviewedConcepts) / float64(s.Concepts)
}

// JoinTags flattens a tag list into the comma-joined storage form.
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, ",")
}

// SplitTags parses the comma-joined storage form back into a tag list.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
