package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	"versionhistory/internal/components/chrono"
	"versionhistory/internal/config"
	"versionhistory/internal/history"
	"versionhistory/internal/ledger"
	"versionhistory/internal/products"
	"versionhistory/internal/reconcile"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	scrapeFlags = config.Flags{}
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestScrapeMissingPrevious(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "flash.csv")

	err := execute(t, "scrape", "flash",
		"--config", filepath.Join(dir, "missing.json5"),
	)
	require.ErrorIs(t, err, config.ErrConfiguration)

	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{}`), 0600))

	err = execute(t, "scrape", "flash",
		"--config", cfgPath,
		"--mode", "previous",
		"--previous-file", filepath.Join(dir, "previous.csv"),
		"--output-file", output,
	)
	require.ErrorIs(t, err, config.ErrConfiguration)
	require.NoFileExists(t, output)
}

func TestScrapeSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{}`), 0600))

	prior, err := ledger.New(ledger.NewSchema(), []ledger.Record{
		{Version: "1.8.0_201", Attributes: map[string]string{ledger.FieldDate: "2019-01-15"}},
	})
	require.NoError(t, err)
	previous := filepath.Join(dir, "previous.csv")
	require.NoError(t, ledger.Save(previous, prior))
	output := filepath.Join(dir, "java.csv")

	err = execute(t, "scrape", "java",
		"--config", cfgPath,
		"--mode", "previous",
		"--previous-file", previous,
		"--output-file", output,
	)
	require.ErrorIs(t, err, ledger.ErrSchemaMismatch)
	require.NoFileExists(t, output)
}

func TestScrapeUnknownProduct(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{}`), 0600))

	err := execute(t, "scrape", "chrom", "--config", cfgPath)
	require.ErrorIs(t, err, products.ErrUnknownProduct)
}

func TestShow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{}`), 0600))

	l, err := ledger.New(ledger.NewSchema(), []ledger.Record{
		{Version: "9.2", Attributes: map[string]string{ledger.FieldDate: "2020-01-01"}},
		{Version: "10.2", Attributes: map[string]string{ledger.FieldDate: "2021-01-01"}},
	})
	require.NoError(t, err)
	path := filepath.Join(dir, "vlc.csv")
	require.NoError(t, ledger.Save(path, l))

	require.NoError(t, execute(t, "show", path, "--config", cfgPath))

	err = execute(t, "show", path, "--config", cfgPath, "--product", "java")
	require.ErrorIs(t, err, ledger.ErrSchemaMismatch)
}

func TestHistory(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{}`), 0600))

	historyDb = ""
	err := execute(t, "history", "flash", "--config", cfgPath)
	require.ErrorIs(t, err, config.ErrConfiguration)

	previous := clock
	t.Cleanup(func() { clock = previous })
	started := time.Date(2017, 3, 14, 10, 0, 0, 0, time.UTC)
	clock = chrono.FixedImpl{Time: started}

	path := filepath.Join(dir, "history.db")
	store, err := history.Open(context.Background(), path)
	require.NoError(t, err)
	_, err = store.Record(context.Background(), history.NewRun(
		"flash", reconcile.ModePrevious, "flash.csv",
		clock.Now(), clock.Now().Add(time.Second), reconcile.Result{
			Counts: []reconcile.SourceCount{{Source: "adobe", Fetched: 3}},
		}, nil,
	))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, execute(t, "history", "flash", "--config", cfgPath, "--history-db", path))

	store, err = history.Open(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Recent(context.Background(), "flash", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.True(t, started.Equal(runs[0].StartedAt))
	require.Equal(t, []history.SourceRun{{Source: "adobe", Fetched: 3}}, runs[0].Sources)
}
