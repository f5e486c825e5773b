package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trading-bot-backend/internal/logger"
)

const version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "Trading bot backend",
	Long: `Trading bot backend: HTTP API, scheduled trading cycles, and end-of-day summaries.

Without a subcommand the HTTP server and scheduler are started.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeSystem()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the trading scheduler",
	RunE:  runServe,
}

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one trading cycle and print the outcome as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx, configPath)
		if err != nil {
			return err
		}
		defer app.release(ctx)

		sess, err := app.db.Acquire(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		res, err := app.engine.RunCycle(ctx, sess)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

var eodDate string

var eodCmd = &cobra.Command{
	Use:   "eod",
	Short: "Write the end-of-day CSV summary for a date (default today)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx, configPath)
		if err != nil {
			return err
		}
		defer app.release(ctx)

		day := time.Now().In(app.cfg.Location())
		if eodDate != "" {
			day, err = time.ParseInLocation("2006-01-02", eodDate, app.cfg.Location())
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", eodDate, err)
			}
		}
		p, err := app.eod.SummarizeDay(ctx, day)
		if err != nil {
			return err
		}
		if p == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No trades for", day.Format("2006-01-02"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "EOD CSV written:", p)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	logger.Info(ctx, "Bot started", "version", version)
	return app.Serve(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	eodCmd.Flags().StringVar(&eodDate, "date", "", "day to summarize (YYYY-MM-DD, trading timezone)")

	rootCmd.AddCommand(serveCmd, cycleCmd, eodCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
