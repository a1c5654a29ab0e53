// Package main provides the pensieve command-line surface: a thin wrapper
// that parses arguments and forwards to the knowledge API.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/pensieve-dev/pensieve/internal/config"
	"github.com/pensieve-dev/pensieve/internal/db"
	"github.com/pensieve-dev/pensieve/internal/knowledge"
	"github.com/pensieve-dev/pensieve/pkg/models"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderErr(err))
		os.Exit(1)
	}
}

// renderErr maps ledger error kinds onto short user-facing messages.
func renderErr(err error) string {
	switch {
	case errors.Is(err, db.ErrBusy):
		return "store busy, try again"
	case errors.Is(err, db.ErrNotFound):
		return "not found"
	default:
		return err.Error()
	}
}

func newRootCmd() *cobra.Command {
	var (
		dbPath string
		debug  bool
	)

	cmd := &cobra.Command{
		Use:           "pensieve",
		Short:         "A searchable ledger of what you learn while coding",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "ledger database path (default: ~/.pensieve/learnings.db)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// The default store location is resolved exactly once, here at the
	// outermost boundary; everything below takes an explicit path.
	open := func() (*knowledge.Service, func(), error) {
		path := dbPath
		cfg := config.Get()
		if path == "" {
			path = cfg.DBPath
		}
		store, err := db.NewStore(db.Config{
			Path:          path,
			MaxConns:      cfg.MaxConns,
			BusyTimeoutMS: cfg.BusyTimeoutMS,
			LogLevel:      logger.Silent,
		})
		if err != nil {
			return nil, nil, err
		}
		return knowledge.NewService(store), func() { _ = store.Close() }, nil
	}

	cmd.AddCommand(
		newLogConceptCmd(open),
		newLogPatternCmd(open),
		newLogGotchaCmd(open),
		newQueryCmd(open),
		newReviewCmd(open),
		newGapsCmd(open),
		newSessionCmd(open),
		newStatsCmd(open),
	)
	return cmd
}

// openFunc opens the service for one command invocation.
type openFunc func() (*knowledge.Service, func(), error)

func newLogConceptCmd(open openFunc) *cobra.Command {
	var (
		example string
		tags    []string
	)
	cmd := &cobra.Command{
		Use:   "log-concept NAME EXPLANATION",
		Short: "Record a concept learned during a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := svc.LogConcept(cmd.Context(), args[0], args[1], example, tags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "concept %q logged with id %d\n", args[0], id)
			return nil
		},
	}
	cmd.Flags().StringVar(&example, "example", "", "code example")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")
	return cmd
}

func newLogPatternCmd(open openFunc) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "log-pattern NAME DESCRIPTION",
		Short: "Record a recurring pattern (repeat logs bump its seen count)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.LogPattern(cmd.Context(), args[0], args[1], tags)
			if err != nil {
				return err
			}
			if res.Created {
				fmt.Fprintf(cmd.OutOrStdout(), "pattern %q logged\n", res.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "pattern %q updated (seen %d times)\n", res.Name, res.TimesSeen)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")
	return cmd
}

func newLogGotchaCmd(open openFunc) *cobra.Command {
	var (
		example  string
		severity string
		concept  string
	)
	cmd := &cobra.Command{
		Use:   "log-gotcha DESCRIPTION",
		Short: "Record a pitfall, optionally linked to a concept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.LogGotcha(cmd.Context(), args[0], example, models.Severity(severity), concept)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "gotcha logged (severity=%s)\n", res.Severity)
			if res.Note != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Note)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&example, "example", "", "code example")
	cmd.Flags().StringVar(&severity, "severity", "warning", "danger, warning, or info")
	cmd.Flags().StringVar(&concept, "concept", "", "concept name to link")
	return cmd
}

func newQueryCmd(open openFunc) *cobra.Command {
	var (
		tags  []string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "query [SEARCH]",
		Short: "Search concepts by text or tags, or list the most recent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			search := ""
			if len(args) == 1 {
				search = args[0]
			}
			concepts, err := svc.QueryConcepts(cmd.Context(), search, tags, limit)
			if err != nil {
				return err
			}
			if len(concepts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no concepts found")
				return nil
			}
			for _, c := range concepts {
				line := fmt.Sprintf("- %s (id=%d)", c.Name, c.ID)
				if c.Tags != "" {
					line += " [" + c.Tags + "]"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", line, truncate(c.Explanation, 120))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "filter by any of these tags")
	cmd.Flags().IntVar(&limit, "limit", config.DefaultQueryLimit, "maximum results")
	return cmd
}

func newReviewCmd(open openFunc) *cobra.Command {
	var (
		id   int64
		name string
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Mark a concept as reviewed by id or name",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 && name == "" {
				return fmt.Errorf("provide --id or --name")
			}
			svc, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.MarkReviewed(cmd.Context(), id, name)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), renderErr(err))
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %q as reviewed (concept %d)\n", res.Name, res.ID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "concept id")
	cmd.Flags().StringVar(&name, "name", "", "concept name")
	return cmd
}

func newGapsCmd(open openFunc) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "List concepts needing review",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			concepts, err := svc.LearningGaps(cmd.Context(), days, config.DefaultQueryLimit)
			if err != nil {
				return err
			}
			if len(concepts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no learning gaps, all caught up")
				return nil
			}
			for _, c := range concepts {
				status := "never reviewed"
				if c.ReviewedAt.Valid {
					status = "last reviewed " + c.ReviewedAt.String
				}
				fmt.Fprintf(cmd.OutOrStdout(), "- %s (id=%d, %s, reviewed %dx)\n", c.Name, c.ID, status, c.ReviewCount)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "review cutoff in days")
	return cmd
}

func newSessionCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session [ID]",
		Short: "Summarize a session (latest if no id given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			}
			activity, err := svc.SessionSummary(cmd.Context(), sessionID)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "no sessions found")
					return nil
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s (started %s)\n", activity.Session.ID, activity.Session.StartedAt)
			if activity.Session.ProjectPath.Valid {
				fmt.Fprintf(out, "project: %s\n", activity.Session.ProjectPath.String)
			}
			fmt.Fprintf(out, "activity: %d responses, %d code changes, %d commands, %d concepts\n",
				activity.Responses, activity.CodeChanges, activity.Commands, activity.Concepts)
			for _, name := range activity.ConceptNames {
				fmt.Fprintf(out, "- %s\n", name)
			}
			return nil
		},
	}
	return cmd
}

func newStatsCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show global ledger counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "concepts: %d (%d reviewed, %.0f%%)\n",
				stats.Concepts, stats.ReviewedConcepts, stats.ReviewRatio()*100)
			fmt.Fprintf(out, "patterns: %d\n", stats.Patterns)
			fmt.Fprintf(out, "gotchas: %d\n", stats.Gotchas)
			fmt.Fprintf(out, "sessions: %d (%d responses, %d code changes, %d commands)\n",
				stats.Sessions, stats.Responses, stats.CodeChanges, stats.Commands)
			return nil
		},
	}
	return cmd
}

// truncate shortens s for one-line display.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
