// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelconde1/aplicativo-novo/models"
)

func newTestCSVLedger(t *testing.T) *CSVLedger {
	t.Helper()
	l, err := NewCSVLedger(filepath.Join(t.TempDir(), "data", "scans.csv"))
	require.NoError(t, err)
	return l
}

func scan(user, code string) models.Scan {
	return models.Scan{Username: user, Barcode: code, Timestamp: "2025-04-01 10:00:00"}
}

func TestNewCSVLedger_CreatesHeader(t *testing.T) {
	l := newTestCSVLedger(t)

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, "username,barcode,timestamp\n", string(data))

	scans, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestNewCSVLedger_ZeroByteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	l, err := NewCSVLedger(path)
	require.NoError(t, err)

	scans, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestNewCSVLedger_KeepsExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.csv")
	legacy := "username,barcode,timestamp\njoao,123,2025-01-02 03:04:05\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	l, err := NewCSVLedger(path)
	require.NoError(t, err)

	scans, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Scan{{Username: "joao", Barcode: "123", Timestamp: "2025-01-02 03:04:05"}}, scans)
}

func TestCSVLedger_Append(t *testing.T) {
	ctx := context.Background()
	l := newTestCSVLedger(t)

	require.NoError(t, l.Append(ctx, scan("joao", "111")))
	require.NoError(t, l.Append(ctx, scan("maria", "a,b")))
	require.NoError(t, l.Append(ctx, scan("joao", "111")))

	scans, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Scan{scan("joao", "111"), scan("maria", "a,b"), scan("joao", "111")}, scans)
}

func TestCSVLedger_AppendRecreatesDeletedFile(t *testing.T) {
	ctx := context.Background()
	l := newTestCSVLedger(t)
	require.NoError(t, os.Remove(l.Path()))

	require.NoError(t, l.Append(ctx, scan("joao", "111")))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, "username,barcode,timestamp\njoao,111,2025-04-01 10:00:00\n", string(data))
}

func TestCSVLedger_AppendAfterMissingNewline(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scans.csv")
	require.NoError(t, os.WriteFile(path, []byte("username,barcode,timestamp\njoao,1,2025-01-01 00:00:00"), 0o644))

	l, err := NewCSVLedger(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, scan("maria", "2")))

	scans, err := l.Load(ctx)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "maria", scans[1].Username)
}

func TestCSVLedger_AppendRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	l := newTestCSVLedger(t)

	err := l.Append(ctx, scan("joao", "[object Object]"))
	assert.ErrorIs(t, err, ErrInvalidBarcode)

	scans, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestCSVLedger_Clear(t *testing.T) {
	ctx := context.Background()
	l := newTestCSVLedger(t)
	for _, s := range []models.Scan{scan("a", "1"), scan("b", "2"), scan("a", "3"), scan("c", "4"), scan("b", "5")} {
		require.NoError(t, l.Append(ctx, s))
	}

	require.NoError(t, l.Clear(ctx, "a"))
	scans, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Scan{scan("b", "2"), scan("c", "4"), scan("b", "5")}, scans)

	// Unknown user leaves everything in place
	require.NoError(t, l.Clear(ctx, "zzz"))
	scans, err = l.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, scans, 3)

	require.NoError(t, l.Clear(ctx, ""))
	scans, err = l.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, scans)

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, "username,barcode,timestamp\n", string(data))
}

func TestCSVLedger_RewriteUsername(t *testing.T) {
	ctx := context.Background()
	l := newTestCSVLedger(t)
	for _, s := range []models.Scan{scan("old", "1"), scan("x", "2"), scan("old", "3")} {
		require.NoError(t, l.Append(ctx, s))
	}

	n, err := l.RewriteUsername(ctx, "old", "new")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	scans, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Scan{scan("new", "1"), scan("x", "2"), scan("new", "3")}, scans)

	n, err = l.RewriteUsername(ctx, "missing", "other")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCSVLedger_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scans.csv")
	require.NoError(t, os.WriteFile(path, []byte("not,a,ledger\n1,2,3\n"), 0o644))

	l, err := NewCSVLedger(path)
	require.NoError(t, err)

	_, err = l.Load(ctx)
	assert.ErrorIs(t, err, ErrStoreCorrupt)

	// A corrupt ledger is never overwritten by a partial rewrite
	assert.ErrorIs(t, l.Clear(ctx, "1"), ErrStoreCorrupt)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not,a,ledger\n1,2,3\n", string(data))
}

func TestCSVLedger_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	l := newTestCSVLedger(t)

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, l.Append(ctx, scan(fmt.Sprintf("user%d", w), fmt.Sprintf("%d-%d", w, i))))
			}
		}(w)
	}
	wg.Wait()

	scans, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, scans, writers*perWriter)

	// Per-writer order is preserved
	next := make(map[string]int)
	for _, s := range scans {
		var w, i int
		_, err := fmt.Sscanf(s.Barcode, "%d-%d", &w, &i)
		require.NoError(t, err)
		assert.Equal(t, next[s.Username], i, "row out of order for %s", s.Username)
		next[s.Username] = i + 1
	}
}

func TestCSVLedger_AppendDuringRewrite(t *testing.T) {
	ctx := context.Background()
	l := newTestCSVLedger(t)
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Append(ctx, scan("old", fmt.Sprint(i))))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, l.Append(ctx, scan("other", fmt.Sprint(i))))
		}
	}()
	go func() {
		defer wg.Done()
		_, err := l.RewriteUsername(ctx, "old", "new")
		assert.NoError(t, err)
	}()
	wg.Wait()

	scans, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, scans, 100)
	assert.Len(t, FilterByUser(scans, "new"), 50)
	assert.Len(t, FilterByUser(scans, "other"), 50)
	assert.Empty(t, FilterByUser(scans, "old"))
}
