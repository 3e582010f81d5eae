package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/DubyaFM/quartermaster/internal/config"
	"github.com/DubyaFM/quartermaster/internal/event"
	"github.com/DubyaFM/quartermaster/internal/logstore"
	"github.com/DubyaFM/quartermaster/internal/query"
	"github.com/DubyaFM/quartermaster/internal/runtime"
	"github.com/DubyaFM/quartermaster/pkg/id"
	logpkg "github.com/DubyaFM/quartermaster/pkg/log"
)

func main() {
	logger := logpkg.NewLogger(
		logpkg.WithLevel(logpkg.FromEnv()),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	var (
		configPath   string
		dataDir      string
		campaignFlag string
	)

	loadRuntime := func() (*runtime.Runtime, error) {
		cfg, err := cfgpkg.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfgpkg.FromEnv(&cfg)
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		return runtime.Open(runtime.Options{Config: cfg, Logger: logger})
	}

	campaignID := func(rt *runtime.Runtime) string {
		if campaignFlag != "" {
			return campaignFlag
		}
		return rt.Config().DefaultCampaign
	}

	rootCmd := &cobra.Command{
		Use:   "quartermaster",
		Short: "Campaign activity log toolkit",
		Long:  "Quartermaster keeps a campaign's activity log as a hand-editable text file.\nThis CLI appends entries, queries the log, and reports entries that need manual repair.",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the data directory")
	rootCmd.PersistentFlags().StringVarP(&campaignFlag, "campaign", "c", "", "campaign id (default from config)")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the campaign's activity log if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.CheckHealth(cmd.Context()); err != nil {
				return err
			}
			s, err := rt.OpenLog(campaignID(rt))
			if err != nil {
				return err
			}
			if err := s.EnsureLoaded(cmd.Context()); err != nil {
				return err
			}
			meta, err := rt.EnsureCampaign(campaignID(rt))
			if err != nil {
				return err
			}
			fmt.Printf("activity log ready at %s\n", meta.LogPath)
			return nil
		},
	}

	var (
		noteTitle   string
		noteTags    []string
		actorName   string
		actorType   string
		gameDate    string
		description string
	)
	appendCmd := &cobra.Command{
		Use:   "append-note <content>",
		Short: "Append a custom note to the log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			s, err := rt.OpenLog(campaignID(rt))
			if err != nil {
				return err
			}
			at := event.ActorType(actorType)
			if !at.Valid() {
				return fmt.Errorf("actor type must be player, gm, or system")
			}
			desc := description
			if desc == "" {
				desc = noteTitle
			}
			if desc == "" {
				desc = firstLine(args[0])
			}
			ev := event.Event{
				ID:          id.NewGenerator().Next().String(),
				CampaignID:  campaignID(rt),
				Timestamp:   time.Now().UnixMilli(),
				GameDate:    gameDate,
				Type:        event.TypeCustomNote,
				ActorType:   at,
				ActorName:   actorName,
				Description: desc,
				Metadata:    &event.CustomNote{Title: noteTitle, Content: args[0], Tags: noteTags},
			}
			if err := s.Append(cmd.Context(), ev); err != nil {
				return err
			}
			fmt.Printf("appended %s\n", ev.ID)
			return nil
		},
	}
	appendCmd.Flags().StringVar(&noteTitle, "title", "", "note title")
	appendCmd.Flags().StringSliceVar(&noteTags, "tag", nil, "note tag (repeatable)")
	appendCmd.Flags().StringVar(&actorName, "actor", "", "actor name")
	appendCmd.Flags().StringVar(&actorType, "actor-type", "gm", "actor type: player, gm, system")
	appendCmd.Flags().StringVar(&gameDate, "game-date", "", "in-fiction date label")
	appendCmd.Flags().StringVar(&description, "description", "", "one-line summary")

	var (
		types      []string
		actorTypes []string
		actors     []string
		searchText string
		filterExpr string
		sinceMs    int64
		untilMs    int64
		offset     int
		limit      int
		ascending  bool
	)
	addQueryFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringSliceVar(&types, "type", nil, "event type (repeatable)")
		cmd.Flags().StringSliceVar(&actorTypes, "actor-type", nil, "actor type (repeatable)")
		cmd.Flags().StringSliceVar(&actors, "actor", nil, "actor name substring (repeatable)")
		cmd.Flags().StringVar(&filterExpr, "filter", "", "CEL filter expression")
		cmd.Flags().Int64Var(&sinceMs, "since", 0, "minimum timestamp (ms since epoch)")
		cmd.Flags().Int64Var(&untilMs, "until", 0, "maximum timestamp (ms since epoch)")
		cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
		cmd.Flags().IntVar(&limit, "limit", 0, "pagination limit (0 = all)")
		cmd.Flags().BoolVar(&ascending, "asc", false, "oldest first")
	}
	buildQuery := func(campaign string) query.Query {
		q := query.Query{
			CampaignID: campaign,
			ActorNames: actors,
			SearchText: searchText,
			FilterExpr: filterExpr,
			Offset:     offset,
			Limit:      limit,
		}
		for _, t := range types {
			q.EventTypes = append(q.EventTypes, event.Type(t))
		}
		for _, a := range actorTypes {
			q.ActorTypes = append(q.ActorTypes, event.ActorType(a))
		}
		if sinceMs > 0 {
			q.StartDate = &sinceMs
		}
		if untilMs > 0 {
			q.EndDate = &untilMs
		}
		if ascending {
			q.SortOrder = query.SortAsc
		}
		return q
	}
	runQuery := func(ctx context.Context, rt *runtime.Runtime) error {
		s, err := rt.OpenLog(campaignID(rt))
		if err != nil {
			return err
		}
		res, err := s.Query(ctx, buildQuery(campaignID(rt)))
		if err != nil {
			return err
		}
		printResult(res)
		return reportCorruption(s)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List log entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return runQuery(cmd.Context(), rt)
		},
	}
	addQueryFlags(listCmd)
	listCmd.Flags().StringVar(&searchText, "search", "", "free-text search")

	searchCmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search entry descriptions and note contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			searchText = args[0]
			return runQuery(cmd.Context(), rt)
		},
	}
	addQueryFlags(searchCmd)

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report entries that failed to parse",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			s, err := rt.OpenLog(campaignID(rt))
			if err != nil {
				return err
			}
			if err := s.Rebuild(cmd.Context()); err != nil {
				return err
			}
			corrupted := s.Corrupted()
			if len(corrupted) == 0 {
				fmt.Println("no corrupted entries")
				return nil
			}
			for _, c := range corrupted {
				fmt.Printf("line %d: %s\n", c.Line, c.Err)
				fmt.Printf("  %s\n", strings.ReplaceAll(c.Preview, "\n", "\n  "))
			}
			return fmt.Errorf("%d corrupted entries need manual repair", len(corrupted))
		},
	}

	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the cache from the log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			s, err := rt.OpenLog(campaignID(rt))
			if err != nil {
				return err
			}
			if err := s.Rebuild(cmd.Context()); err != nil {
				return err
			}
			events, err := s.Events(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%d events, %d corrupted\n", len(events), len(s.Corrupted()))
			return nil
		},
	}

	rootCmd.AddCommand(initCmd, appendCmd, listCmd, searchCmd, doctorCmd, rebuildCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printResult(res query.Result) {
	for _, ev := range res.Events {
		ts := time.UnixMilli(ev.Timestamp).UTC().Format("2006-01-02 15:04")
		gd := ""
		if ev.GameDate != "" {
			gd = " (" + ev.GameDate + ")"
		}
		fmt.Printf("%s  %-26s %s%s - %s\n", ts, ev.Type.Label(), ev.Actor(), gd, ev.Description)
	}
	more := ""
	if res.HasMore {
		more = " (more available)"
	}
	fmt.Printf("%d of %d entries%s\n", len(res.Events), res.Total, more)
}

func reportCorruption(s *logstore.Store) error {
	if n := len(s.Corrupted()); n > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d corrupted entries skipped; run doctor for details\n", n)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
