package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	"versionhistory/internal/ledger"
	"versionhistory/internal/products"
	"versionhistory/internal/reconcile"

	"github.com/stretchr/testify/require"
)

func product(t *testing.T, name string) products.Product {
	p, err := products.Get(name)
	require.NoError(t, err)
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, os.ErrNotExist)

	err = os.WriteFile(path, []byte(`{
		http: {timeout_seconds: 5, requests_per_second: 2},
		concurrency: 2,
		on_source_error: "continue",
		products: {
			java: {prior_precedence: "last", output_file: "out/java.csv"},
		},
	}`), 0600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Concurrency)
	require.Equal(t, "last", cfg.Products["java"].PriorPrecedence)

	opts, err := cfg.ClientOptions()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, opts.Timeout)
	require.Equal(t, 2.0, opts.RequestsPerSecond)
	require.NotEmpty(t, opts.UserAgent)
}

func TestClientOptionsInvalid(t *testing.T) {
	_, err := Config{Http: HttpConfig{TimeoutSeconds: -1}}.ClientOptions()
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNewRunDefaults(t *testing.T) {
	run, err := NewRun(Config{}, product(t, "flash"), Flags{})
	require.NoError(t, err)
	require.Equal(t, reconcile.ModePrevious, run.Mode)
	require.Equal(t, filepath.Join("..", "flash.csv"), run.PreviousFile)
	require.Equal(t, "flash.csv", run.OutputFile)
	require.Equal(t, reconcile.PriorFirst, run.PriorPrecedence)
	require.Equal(t, reconcile.FailAbort, run.FailurePolicy)
	require.Equal(t, reconcile.DefaultConcurrency, run.Concurrency)

	run, err = NewRun(Config{}, product(t, "vlc"), Flags{})
	require.NoError(t, err)
	require.Equal(t, reconcile.ModeStandalone, run.Mode)
}

func TestNewRunPrecedence(t *testing.T) {
	cfg := Config{
		Concurrency:   2,
		OnSourceError: "continue",
		Products: map[string]ProductConfig{
			"java": {PriorPrecedence: "last", OutputFile: "out/java.csv"},
		},
	}

	run, err := NewRun(cfg, product(t, "java"), Flags{Mode: "PREVIOUS"})
	require.NoError(t, err)
	require.Equal(t, reconcile.ModePrevious, run.Mode)
	require.Equal(t, reconcile.PriorLast, run.PriorPrecedence)
	require.Equal(t, reconcile.FailContinue, run.FailurePolicy)
	require.Equal(t, "out/java.csv", run.OutputFile)
	require.Equal(t, 2, run.Concurrency)

	run, err = NewRun(cfg, product(t, "java"), Flags{
		PriorPrecedence: "first",
		OnSourceError:   "abort",
		OutputFile:      "java.csv",
		Concurrency:     8,
	})
	require.NoError(t, err)
	require.Equal(t, reconcile.PriorFirst, run.PriorPrecedence)
	require.Equal(t, reconcile.FailAbort, run.FailurePolicy)
	require.Equal(t, "java.csv", run.OutputFile)
	require.Equal(t, 8, run.Concurrency)
}

func TestNewRunInvalid(t *testing.T) {
	for _, flags := range []Flags{
		{Mode: "incremental"},
		{PriorPrecedence: "middle"},
		{OnSourceError: "ignore"},
		{Concurrency: -1},
	} {
		_, err := NewRun(Config{}, product(t, "flash"), flags)
		require.ErrorIs(t, err, ErrConfiguration, "%+v", flags)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "flash.csv")

	run, err := NewRun(Config{}, product(t, "flash"), Flags{
		PreviousFile: previous,
		OutputFile:   filepath.Join(dir, "out.csv"),
	})
	require.NoError(t, err)

	err = run.Validate()
	require.ErrorIs(t, err, ErrConfiguration)
	require.Contains(t, err.Error(), previous)

	require.NoError(t, ledger.Save(previous, mustLedger(t)))
	require.NoError(t, run.Validate())

	prior, err := run.LoadPrior()
	require.NoError(t, err)
	require.Equal(t, 1, prior.Len())

	opts := run.Options(prior)
	require.NoError(t, opts.Validate())

	run.Mode = reconcile.ModeStandalone
	run.PreviousFile = filepath.Join(dir, "missing.csv")
	require.NoError(t, run.Validate())
	prior, err = run.LoadPrior()
	require.NoError(t, err)
	require.Nil(t, prior)

	run.OutputFile = filepath.Join(dir, "missing", "out.csv")
	require.ErrorIs(t, run.Validate(), ErrConfiguration)
}

func TestLoadPriorSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "java.csv")
	require.NoError(t, ledger.Save(previous, mustLedger(t)))

	run, err := NewRun(Config{}, product(t, "java"), Flags{Mode: "previous", PreviousFile: previous})
	require.NoError(t, err)
	_, err = run.LoadPrior()
	require.ErrorIs(t, err, ledger.ErrSchemaMismatch)
}

func mustLedger(t *testing.T) ledger.Ledger {
	l, err := ledger.New(ledger.NewSchema(), []ledger.Record{
		{Version: "23.0.0.162", Attributes: map[string]string{ledger.FieldDate: "2016-10-11"}},
	})
	require.NoError(t, err)
	return l
}
