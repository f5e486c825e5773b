package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-bot-backend/internal/types"
)

func TestAppendWritesDailyJSONL(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, time.UTC)
	now := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	require.NoError(t, l.Append(types.JournalEntry{Symbol: "NIFTY", Side: types.SideBuy, Qty: 1, Status: types.StatusBlocked, Reason: "Daily loss limit reached"}))
	require.NoError(t, l.Append(types.JournalEntry{Symbol: "NIFTY", Side: types.SideBuy, Qty: 1, Status: types.StatusPlaced, OrderID: "PAPER-1", TradeID: 7}))

	f, err := os.Open(filepath.Join(dir, "cycles", "2025-03-01.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var entries []types.JournalEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e types.JournalEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, types.StatusBlocked, entries[0].Status)
	assert.Equal(t, "2025-03-01T23:30:00Z", entries[0].Time)
	assert.Equal(t, int64(7), entries[1].TradeID)
}

func TestDailyPathUsesLocation(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	l := New(t.TempDir(), ist)
	p := l.DailyPath(time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-02.jsonl", filepath.Base(p))
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, time.UTC)
	require.NoError(t, l.Append(types.JournalEntry{Symbol: "NIFTY", Status: types.StatusPlaced}))

	p := l.DailyPath(time.Now())
	old := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(p, old, old))

	n, err := l.CompressOlder(0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = l.CompressOlder(3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	f, err := os.Open(p + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	b, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"symbol":"NIFTY"`)
}
