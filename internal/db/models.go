package db

import (
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/pensieve-dev/pensieve/pkg/models"
)

// GORM models. Timestamps are RFC3339 in UTC plus an epoch-millisecond
// column for ordering. Tables with session or concept references are created
// by raw DDL in migrations.go (SQLite only accepts REFERENCES at CREATE
// time); these structs map onto those tables for reads and writes.

// nowUTC returns the canonical timestamp pair for new rows.
func nowUTC() (string, int64) {
	now := time.Now().UTC()
	return now.Format(time.RFC3339), now.UnixMilli()
}

// epochFor derives the epoch column from a caller-supplied RFC3339
// timestamp, falling back to now for anything unparseable.
func epochFor(timestamp string) int64 {
	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return t.UnixMilli()
	}
	return time.Now().UnixMilli()
}

// Session represents one interaction window.
type Session struct {
	ID             string `gorm:"primaryKey"`
	StartedAt      string `gorm:"not null"`
	StartedAtEpoch int64  `gorm:"index:idx_sessions_started,sort:desc;not null"`
	ProjectPath    sql.NullString
	Summary        sql.NullString
}

func (Session) TableName() string { return "sessions" }

// BeforeCreate hook to ensure timestamps are set.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.StartedAt == "" || s.StartedAtEpoch == 0 {
		ts, epoch := nowUTC()
		if s.StartedAt == "" {
			s.StartedAt = ts
		}
		if s.StartedAtEpoch == 0 {
			s.StartedAtEpoch = epoch
		}
	}
	return nil
}

// Response is one captured assistant text blob.
type Response struct {
	ID             int64
	SessionID      string
	CreatedAt      string
	CreatedAtEpoch int64
	ResponseText   string
	ResponseType   string
}

func (Response) TableName() string { return "responses" }

// BeforeCreate hook to ensure defaults are set.
func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt == "" || r.CreatedAtEpoch == 0 {
		ts, epoch := nowUTC()
		if r.CreatedAt == "" {
			r.CreatedAt = ts
		}
		if r.CreatedAtEpoch == 0 {
			r.CreatedAtEpoch = epoch
		}
	}
	if r.ResponseType == "" {
		r.ResponseType = "raw"
	}
	return nil
}

// CodeChange is one captured file edit.
type CodeChange struct {
	ID             int64
	SessionID      string
	CreatedAt      string
	CreatedAtEpoch int64
	FilePath       string
	OldCode        sql.NullString
	NewCode        sql.NullString
	DiffSummary    sql.NullString
}

func (CodeChange) TableName() string { return "code_changes" }

// BeforeCreate hook to ensure timestamps are set.
func (c *CodeChange) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt == "" || c.CreatedAtEpoch == 0 {
		ts, epoch := nowUTC()
		if c.CreatedAt == "" {
			c.CreatedAt = ts
		}
		if c.CreatedAtEpoch == 0 {
			c.CreatedAtEpoch = epoch
		}
	}
	return nil
}

// Command is one captured shell invocation.
type Command struct {
	ID             int64
	SessionID      string
	CreatedAt      string
	CreatedAtEpoch int64
	CommandLine    string
	WorkingDir     sql.NullString
}

func (Command) TableName() string { return "commands" }

// BeforeCreate hook to ensure timestamps are set.
func (c *Command) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt == "" || c.CreatedAtEpoch == 0 {
		ts, epoch := nowUTC()
		if c.CreatedAt == "" {
			c.CreatedAt = ts
		}
		if c.CreatedAtEpoch == 0 {
			c.CreatedAtEpoch = epoch
		}
	}
	return nil
}

// Concept is one unit of learned knowledge.
type Concept struct {
	ID             int64
	SessionID      sql.NullString
	CreatedAt      string
	CreatedAtEpoch int64
	Name           string
	Explanation    string
	CodeExample    string
	Tags           string
	Source         string
	ReviewedAt     sql.NullString
	ReviewCount    int
}

func (Concept) TableName() string { return "concepts" }

// BeforeCreate hook to ensure defaults are set.
func (c *Concept) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt == "" || c.CreatedAtEpoch == 0 {
		ts, epoch := nowUTC()
		if c.CreatedAt == "" {
			c.CreatedAt = ts
		}
		if c.CreatedAtEpoch == 0 {
			c.CreatedAtEpoch = epoch
		}
	}
	if c.Source == "" {
		c.Source = string(models.SourceHook)
	}
	return nil
}

// Pattern is a named recurring design idea with upsert semantics.
type Pattern struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"uniqueIndex;not null"`
	Description    string `gorm:"type:text;not null"`
	FirstSeen      string `gorm:"not null"`
	FirstSeenEpoch int64  `gorm:"not null"`
	TimesSeen      int    `gorm:"not null;default:1"`
	Tags           string `gorm:"type:text;not null;default:''"`
}

func (Pattern) TableName() string { return "patterns" }

// BeforeCreate hook to ensure defaults are set.
func (p *Pattern) BeforeCreate(tx *gorm.DB) error {
	if p.FirstSeen == "" || p.FirstSeenEpoch == 0 {
		ts, epoch := nowUTC()
		if p.FirstSeen == "" {
			p.FirstSeen = ts
		}
		if p.FirstSeenEpoch == 0 {
			p.FirstSeenEpoch = epoch
		}
	}
	if p.TimesSeen == 0 {
		p.TimesSeen = 1
	}
	return nil
}

// Gotcha is a pitfall, optionally linked to a concept.
type Gotcha struct {
	ID          int64
	ConceptID   sql.NullInt64
	Description string
	CodeExample string
	Severity    string
}

func (Gotcha) TableName() string { return "gotchas" }

// BeforeCreate hook to ensure the severity default is set.
func (g *Gotcha) BeforeCreate(tx *gorm.DB) error {
	if g.Severity == "" {
		g.Severity = string(models.SeverityWarning)
	}
	return nil
}

// Conversions to pkg/models.

func toModelSession(s *Session) *models.Session {
	return &models.Session{
		ID:             s.ID,
		StartedAt:      s.StartedAt,
		StartedAtEpoch: s.StartedAtEpoch,
		ProjectPath:    s.ProjectPath,
		Summary:        s.Summary,
	}
}

func toModelConcept(c *Concept) *models.Concept {
	return &models.Concept{
		ID:             c.ID,
		SessionID:      c.SessionID,
		CreatedAt:      c.CreatedAt,
		CreatedAtEpoch: c.CreatedAtEpoch,
		Name:           c.Name,
		Explanation:    c.Explanation,
		CodeExample:    c.CodeExample,
		Tags:           c.Tags,
		Source:         models.ConceptSource(c.Source),
		ReviewedAt:     c.ReviewedAt,
		ReviewCount:    c.ReviewCount,
	}
}

func toModelConcepts(concepts []Concept) []*models.Concept {
	result := make([]*models.Concept, len(concepts))
	for i := range concepts {
		result[i] = toModelConcept(&concepts[i])
	}
	return result
}

func toModelPattern(p *Pattern) *models.Pattern {
	return &models.Pattern{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		FirstSeen:      p.FirstSeen,
		FirstSeenEpoch: p.FirstSeenEpoch,
		TimesSeen:      p.TimesSeen,
		Tags:           p.Tags,
	}
}

func toModelGotcha(g *Gotcha) *models.Gotcha {
	return &models.Gotcha{
		ID:          g.ID,
		ConceptID:   g.ConceptID,
		Description: g.Description,
		CodeExample: g.CodeExample,
		Severity:    models.Severity(g.Severity),
	}
}
