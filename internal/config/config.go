// Package config resolves the settings of a scrape run from the optional
// versionhistory.json5 file and the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"versionhistory/internal/components/configutil"
	"versionhistory/internal/components/telemetry"
	"versionhistory/internal/ledger"
	"versionhistory/internal/products"
	"versionhistory/internal/reconcile"
	"versionhistory/internal/scrapers"
)

const FileName = "versionhistory.json5"

// ErrConfiguration is returned for every invalid setting, it is always
// raised before any source is fetched.
var ErrConfiguration = errors.New("configuration error")

type HttpConfig struct {
	TimeoutSeconds    float64 `json:"timeout_seconds"`
	UserAgent         string  `json:"user_agent"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// DumpDir receives a dump of every request and response when set.
	DumpDir string `json:"dump_dir"`
}

type ProductConfig struct {
	PreviousFile    string `json:"previous_file"`
	OutputFile      string `json:"output_file"`
	PriorPrecedence string `json:"prior_precedence"`
	OnSourceError   string `json:"on_source_error"`
}

type Config struct {
	Http            HttpConfig               `json:"http"`
	Concurrency     int                      `json:"concurrency"`
	PriorPrecedence string                   `json:"prior_precedence"`
	OnSourceError   string                   `json:"on_source_error"`
	HistoryDb       string                   `json:"history_db"`
	Products        map[string]ProductConfig `json:"products"`
	Telemetry       telemetry.Config         `json:"telemetry"`
}

// Load reads the config file at path. Without a path the file is looked up
// from the cwd upwards and a missing file is an empty config.
func Load(path string) (Config, error) {
	if path != "" {
		cfg, err := configutil.ReadConfig[Config](path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %w", ErrConfiguration, path, err)
		}
		return cfg, nil
	}

	cfg, err := configutil.ReadRecursively[Config](FileName)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %w", ErrConfiguration, FileName, err)
	}
	return cfg, nil
}

func (c Config) ClientOptions() (scrapers.Options, error) {
	opts := scrapers.DefaultOptions()
	if c.Http.TimeoutSeconds < 0 {
		return opts, fmt.Errorf("%w: negative http timeout %v", ErrConfiguration, c.Http.TimeoutSeconds)
	}
	if c.Http.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(c.Http.TimeoutSeconds * float64(time.Second))
	}
	if c.Http.UserAgent != "" {
		opts.UserAgent = c.Http.UserAgent
	}
	if c.Http.RequestsPerSecond != 0 {
		opts.RequestsPerSecond = c.Http.RequestsPerSecond
	}
	if c.Http.DumpDir != "" {
		output, err := telemetry.NewFilesystemOutput(c.Http.DumpDir)
		if err != nil {
			return opts, fmt.Errorf("%w: http dump dir: %w", ErrConfiguration, err)
		}
		opts.Output = output
	}
	return opts, nil
}

// Flags holds the command line values, the zero value of a field means the
// flag was not given.
type Flags struct {
	Mode            string
	PreviousFile    string
	OutputFile      string
	PriorPrecedence string
	OnSourceError   string
	Concurrency     int
	HistoryDb       string
}

// Run is the resolved configuration of one scrape.
type Run struct {
	Product         products.Product
	Mode            reconcile.Mode
	PreviousFile    string
	OutputFile      string
	PriorPrecedence reconcile.PriorPrecedence
	FailurePolicy   reconcile.FailurePolicy
	Concurrency     int
	// HistoryDb is empty when runs are not recorded.
	HistoryDb string
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NewRun resolves every setting in the order flags, product config, global
// config and product defaults.
func NewRun(cfg Config, product products.Product, flags Flags) (Run, error) {
	productCfg := cfg.Products[product.Name]

	run := Run{
		Product:      product,
		Mode:         product.DefaultMode(),
		PreviousFile: firstSet(flags.PreviousFile, productCfg.PreviousFile, filepath.Join("..", product.DefaultFile())),
		OutputFile:   firstSet(flags.OutputFile, productCfg.OutputFile, product.DefaultFile()),
		Concurrency:  reconcile.DefaultConcurrency,
		HistoryDb:    firstSet(flags.HistoryDb, cfg.HistoryDb),
	}

	var err error
	if flags.Mode != "" {
		run.Mode, err = reconcile.ParseMode(flags.Mode)
		if err != nil {
			return Run{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}

	precedence := firstSet(flags.PriorPrecedence, productCfg.PriorPrecedence, cfg.PriorPrecedence, string(reconcile.PriorFirst))
	run.PriorPrecedence, err = reconcile.ParsePriorPrecedence(precedence)
	if err != nil {
		return Run{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	policy := firstSet(flags.OnSourceError, productCfg.OnSourceError, cfg.OnSourceError, string(reconcile.FailAbort))
	run.FailurePolicy, err = reconcile.ParseFailurePolicy(policy)
	if err != nil {
		return Run{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	switch {
	case flags.Concurrency < 0 || cfg.Concurrency < 0:
		return Run{}, fmt.Errorf("%w: negative concurrency", ErrConfiguration)
	case flags.Concurrency > 0:
		run.Concurrency = flags.Concurrency
	case cfg.Concurrency > 0:
		run.Concurrency = cfg.Concurrency
	}

	return run, nil
}

// Validate checks the filesystem, it must be called before any scraping.
func (r Run) Validate() error {
	if r.OutputFile == "" {
		return fmt.Errorf("%w: empty output file", ErrConfiguration)
	}
	dir := filepath.Dir(r.OutputFile)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: output directory: %w", ErrConfiguration, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: output directory %s is not a directory", ErrConfiguration, dir)
	}

	if r.Mode != reconcile.ModePrevious {
		return nil
	}
	info, err = os.Stat(r.PreviousFile)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: previous file %s does not exist, use --mode standalone to build a new ledger", ErrConfiguration, r.PreviousFile)
	}
	if err != nil {
		return fmt.Errorf("%w: previous file: %w", ErrConfiguration, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: previous file %s is a directory", ErrConfiguration, r.PreviousFile)
	}
	return nil
}

// LoadPrior reads the previous ledger in previous mode, nil otherwise.
func (r Run) LoadPrior() (*ledger.Ledger, error) {
	if r.Mode != reconcile.ModePrevious {
		return nil, nil
	}
	prior, err := ledger.Load(r.PreviousFile, r.Product.Schema)
	if err != nil {
		return nil, err
	}
	return &prior, nil
}

// Options are the engine options of the run.
func (r Run) Options(prior *ledger.Ledger) reconcile.Options {
	return reconcile.Options{
		Schema:          r.Product.Schema,
		Mode:            r.Mode,
		Prior:           prior,
		PriorPrecedence: r.PriorPrecedence,
		FailurePolicy:   r.FailurePolicy,
		Exclude:         r.Product.Exclude,
		Concurrency:     r.Concurrency,
	}
}
