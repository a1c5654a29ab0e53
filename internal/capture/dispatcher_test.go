//go:build fts5

package capture

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"

	"github.com/pensieve-dev/pensieve/internal/db"
	"github.com/pensieve-dev/pensieve/pkg/models"
)

type DispatcherSuite struct {
	suite.Suite
	store      *db.Store
	dispatcher *Dispatcher
	sessions   *db.SessionStore
	concepts   *db.ConceptStore
}

func (s *DispatcherSuite) SetupTest() {
	store, err := db.NewStore(db.Config{
		Path:     filepath.Join(s.T().TempDir(), "learnings.db"),
		MaxConns: 4,
		LogLevel: logger.Silent,
	})
	require.NoError(s.T(), err)
	s.T().Cleanup(func() { _ = store.Close() })

	s.store = store
	s.dispatcher = New(store)
	s.sessions = db.NewSessionStore(store)
	s.concepts = db.NewConceptStore(store)
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) activity(sessionID string) *models.SessionActivity {
	got, err := s.sessions.Activity(context.Background(), sessionID)
	s.Require().NoError(err)
	return got
}

func (s *DispatcherSuite) TestAssistantResponse() {
	ctx := context.Background()
	s.dispatcher.Dispatch(ctx, &Event{
		EventType:    EventAssistantResponse,
		TrajectoryID: "traj-resp",
		ToolInfo: ToolInfo{
			Response: "Use context.WithTimeout here.\n# LEARN: contexts propagate deadlines",
		},
	})

	got := s.activity("traj-resp")
	s.Equal(1, got.Responses)
	s.Equal(1, got.Concepts)
	s.Equal([]string{"contexts propagate deadlines"}, got.ConceptNames)

	concept, err := s.concepts.FindByName(ctx, "contexts propagate deadlines")
	s.Require().NoError(err)
	s.Equal(models.SourceHook, concept.Source)
}

func (s *DispatcherSuite) TestCodeWriteFansOutPerEdit() {
	ctx := context.Background()
	s.dispatcher.Dispatch(ctx, &Event{
		EventType:    EventCodeWrite,
		TrajectoryID: "traj-code",
		ToolInfo: ToolInfo{
			FilePath: "/home/dev/app/src/main.py",
			Edits: []Edit{
				{OldString: "x = 0", NewString: "x = 1  # LEARN: integers are immutable"},
				{OldString: "", NewString: "y = []  # LEARN: lists are mutable"},
			},
		},
	})

	got := s.activity("traj-code")
	s.Equal(2, got.CodeChanges)
	s.Equal(2, got.Concepts)
	s.Equal([]string{"integers are immutable", "lists are mutable"}, got.ConceptNames)

	// The session's project path comes from the edited file's location.
	sess, err := s.sessions.Get(ctx, "traj-code")
	s.Require().NoError(err)
	s.Require().True(sess.ProjectPath.Valid)
	s.Equal("/home/dev/app", sess.ProjectPath.String)
}

func (s *DispatcherSuite) TestCommandRun() {
	ctx := context.Background()
	s.dispatcher.Dispatch(ctx, &Event{
		EventType:    EventCommandRun,
		TrajectoryID: "traj-cmd",
		ToolInfo: ToolInfo{
			CommandLine: "pytest -x",
			CWD:         "/home/dev/app",
		},
	})

	got := s.activity("traj-cmd")
	s.Equal(1, got.Commands)

	sess, err := s.sessions.Get(ctx, "traj-cmd")
	s.Require().NoError(err)
	s.Require().True(sess.ProjectPath.Valid)
	s.Equal("/home/dev/app", sess.ProjectPath.String)
}

// Events whose identifying field is empty are complete no-ops: no session
// row appears.
func (s *DispatcherSuite) TestEmptyPayloadFieldsAreNoOps() {
	ctx := context.Background()

	events := []*Event{
		{EventType: EventAssistantResponse, TrajectoryID: "traj-empty"},
		{EventType: EventCodeWrite, TrajectoryID: "traj-empty"},
		{EventType: EventCommandRun, TrajectoryID: "traj-empty"},
	}
	for _, ev := range events {
		s.dispatcher.Dispatch(ctx, ev)
	}

	_, err := s.sessions.Get(ctx, "traj-empty")
	s.Require().ErrorIs(err, db.ErrNotFound)
}

func (s *DispatcherSuite) TestUnknownEventTypeIgnored() {
	ctx := context.Background()
	s.dispatcher.Dispatch(ctx, &Event{
		EventType:    "session_end",
		TrajectoryID: "traj-unknown",
		ToolInfo:     ToolInfo{Response: "should not be stored"},
	})
	s.dispatcher.Dispatch(ctx, nil)

	_, err := s.sessions.Get(ctx, "traj-unknown")
	s.Require().ErrorIs(err, db.ErrNotFound)
}

// Events without a trajectory id still land in a synthesized session.
func (s *DispatcherSuite) TestSynthesizedSessionID() {
	ctx := context.Background()
	s.dispatcher.Dispatch(ctx, &Event{
		EventType: EventAssistantResponse,
		ToolInfo:  ToolInfo{Response: "anonymous response"},
	})

	latest, err := s.sessions.Latest(ctx)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(latest.ID, "session-"))
}

func (s *DispatcherSuite) TestLongAnnotationTruncatedName() {
	ctx := context.Background()
	explanation := strings.Repeat("x", 120)
	s.dispatcher.Dispatch(ctx, &Event{
		EventType:    EventAssistantResponse,
		TrajectoryID: "traj-long",
		ToolInfo:     ToolInfo{Response: "# LEARN: " + explanation},
	})

	got := s.activity("traj-long")
	s.Require().Len(got.ConceptNames, 1)
	s.Len(got.ConceptNames[0], maxConceptNameLen)

	concept, err := s.concepts.FindByName(ctx, got.ConceptNames[0])
	s.Require().NoError(err)
	s.Equal(explanation, concept.Explanation, "explanation keeps the full text")
}
