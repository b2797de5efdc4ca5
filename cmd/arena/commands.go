package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/holotrumps/internal/arena"
	"github.com/okian/holotrumps/pkg/logger"
)

const (
	envURL   = "HOLO_ARENA_URL"
	envState = "HOLO_ARENA_STATE"
)

type options struct {
	arena.Config
	logFormat string
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "arena",
		Short:         "Play Star Wars top trumps against a holotrumps server.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(opts.logFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&opts.BaseURL, "url", envOr(envURL, arena.DefaultBaseURL), "base URL of the service (env: "+envURL+")")
	fs.DurationVar(&opts.Timeout, "timeout", arena.DefaultTimeout, "HTTP request timeout")
	fs.StringVar(&opts.StatePath, "state", envOr(envState, arena.DefaultStatePath()), "history file (env: "+envState+")")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "log every round")

	cmd.AddCommand(
		newPlayCmd(opts),
		newSeedCmd(opts),
		newStatsCmd(opts),
		newHistoryCmd(opts),
		newResetCmd(opts),
	)
	return cmd
}

func (o *options) client() *arena.Client {
	return arena.NewClient(o.BaseURL, o.Timeout)
}

func newPlayCmd(opts *options) *cobra.Command {
	var (
		cfg  arena.PlayConfig
		pick string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play rounds and record them in the local history.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg.Pick = arena.Pick(pick)
			if err := cfg.Validate(); err != nil {
				return err
			}

			client := opts.client()
			if err := client.Health(ctx); err != nil {
				return fmt.Errorf("service health check failed: %w", err)
			}

			files := arena.NewFileStore(opts.StatePath)
			st, err := files.Load(ctx)
			if err != nil {
				return err
			}

			player := arena.NewPlayer(client, arena.WithVerbose(opts.Verbose))
			report, playErr := player.Play(ctx, st, cfg)
			if report.Played > 0 {
				if err := files.Save(ctx, st); err != nil {
					return err
				}
			}
			printReport(cmd.OutOrStdout(), report, st)
			return playErr
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.Resource, "resource", "r", "PEOPLE", "PEOPLE, STARSHIPS or RANDOM")
	fs.IntVarP(&cfg.Rounds, "rounds", "n", arena.DefaultRounds, "number of rounds to play")
	fs.StringVarP(&pick, "pick", "p", string(arena.PickRandom), "side to bet on: left, right or random")
	fs.IntVarP(&cfg.Workers, "workers", "w", 0, "concurrent rounds (default: up to 4)")
	return cmd
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the sample catalog on the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := opts.client().Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server counts and local history statistics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			stats, err := opts.client().GameStats(ctx)
			if err != nil {
				logger.Get().Warn(ctx, "server stats unavailable", logger.Error(err))
				fmt.Fprintf(out, "Server:     unavailable (%v)\n", err)
			} else {
				fmt.Fprintf(out, "Server:     %d people, %d starships\n", stats.PeopleCount, stats.StarshipsCount)
			}

			st, err := arena.NewFileStore(opts.StatePath).Load(ctx)
			if err != nil {
				return err
			}
			printSummary(out, st)
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent battles.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := arena.NewFileStore(opts.StatePath).Load(cmd.Context())
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), st.Recent(limit))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "number of battles to show, 0 for all")
	return cmd
}

func newResetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the local history and profile.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files := arena.NewFileStore(opts.StatePath)
			if err := files.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History cleared (%s)\n", files.Path())
			return nil
		},
	}
}

func printReport(w io.Writer, r arena.Report, st *arena.State) {
	fmt.Fprintf(w, "Played %d rounds in %s (failed: %d, mismatches: %d)\n",
		r.Played, r.Duration.Round(time.Millisecond), r.Failed, r.Mismatches)
	fmt.Fprintf(w, "Score:      left %d, right %d, ties %d\n", r.Score.Left, r.Score.Right, r.Score.Ties)
	fmt.Fprintf(w, "You won:    %d/%d\n", r.Wins, r.Played)
	fmt.Fprintf(w, "Streak:     %d (best %d)\n", st.Profile.WinStreak, st.Profile.BestWinStreak)
	if r.FirstError != nil {
		fmt.Fprintf(w, "First error: %v\n", r.FirstError)
	}
}

func printSummary(w io.Writer, st *arena.State) {
	sum := st.Summarize()
	p := st.Profile
	fmt.Fprintf(w, "Player:     %s since %s\n", p.Name, p.CreatedAt.Format(time.DateOnly))
	fmt.Fprintf(w, "Lifetime:   %d battles, %d wins, best streak %d\n", p.TotalBattles, p.Wins, p.BestWinStreak)
	fmt.Fprintf(w, "History:    %d battles, %d wins (%.1f%%), avg %.0fms\n",
		sum.TotalBattles, sum.TotalWins, sum.WinRate, sum.AverageDurationMS)
	fmt.Fprintf(w, "Favorite:   %s\n", sum.FavoriteKind)
	for kind, n := range sum.BattlesByKind {
		fmt.Fprintf(w, "  %-10s %d battles, %d wins\n", kind, n, sum.WinsByKind[kind])
	}
	fmt.Fprintf(w, "Scoreboard: left %d, right %d, ties %d\n", st.Score.Left, st.Score.Right, st.Score.Ties)
	if sum.Mismatches > 0 {
		fmt.Fprintf(w, "Mismatches: %d\n", sum.Mismatches)
	}
}

func printHistory(w io.Writer, battles []arena.Battle) {
	if len(battles) == 0 {
		fmt.Fprintln(w, "No battles yet.")
		return
	}
	for _, b := range battles {
		result := "lost"
		switch {
		case b.Tie():
			result = "tie"
		case b.Won:
			result = "won"
		}
		fmt.Fprintf(w, "%s  %-9s  %s (%d) vs %s (%d) by %s  pick %s  %s\n",
			b.Timestamp.Local().Format(time.DateTime), b.Kind,
			b.Left.Name(), b.Left.Value(), b.Right.Name(), b.Right.Value(),
			b.WinningAttribute, strings.ToLower(string(b.Pick)), result)
	}
}
