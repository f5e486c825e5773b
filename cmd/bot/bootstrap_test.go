package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-bot-backend/internal/types"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "scheduler:\n  enabled: false\n" +
		"database:\n  path: " + filepath.Join(dir, "bot.db") + "\n" +
		"tradelog:\n  dir: " + filepath.Join(dir, "logs") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestAppCycleAndClose(t *testing.T) {
	for _, k := range []string{"ZERODHA_API_KEY", "ZERODHA_API_SECRET", "ZERODHA_ACCESS_TOKEN", "SYMBOLS", "DB_PATH", "SCHEDULER_ENABLED"} {
		t.Setenv(k, "")
	}
	ctx := context.Background()

	app, err := newApp(ctx, writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "paper", app.broker.Profile().Mode)

	sess, err := app.db.Acquire(ctx)
	require.NoError(t, err)
	res, err := app.engine.RunCycle(ctx, sess)
	require.NoError(t, err)
	require.NoError(t, sess.Close())
	assert.Equal(t, types.StatusPlaced, res.Status)

	_, err = os.Stat(app.journal.DailyPath(time.Now()))
	assert.NoError(t, err, "cycle outcome journaled")

	app.Close(ctx)

	csvs, err := filepath.Glob(filepath.Join(app.cfg.TradeLog.Dir, "eod", "*.csv"))
	require.NoError(t, err)
	assert.Len(t, csvs, 1, "shutdown writes the EOD summary")

	_, err = app.db.Acquire(ctx)
	assert.Error(t, err)
}

func TestAppReleaseForOneShotCommands(t *testing.T) {
	for _, k := range []string{"ZERODHA_API_KEY", "ZERODHA_API_SECRET", "ZERODHA_ACCESS_TOKEN", "DB_PATH", "LOG_TRACING_ENABLED"} {
		t.Setenv(k, "")
	}
	ctx := context.Background()

	app, err := newApp(ctx, writeConfig(t))
	require.NoError(t, err)

	path, err := app.eod.SummarizeToday(ctx)
	require.NoError(t, err)
	assert.Empty(t, path)

	app.release(ctx)
	_, err = app.db.Acquire(ctx)
	assert.Error(t, err, "database closed after release")
}

func TestNewAppInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("news:\n  provider: rss\n"), 0o644))

	_, err := newApp(context.Background(), path)
	assert.Error(t, err)
}
