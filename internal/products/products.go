// Package products is the registry of every product with a release ledger:
// its columns, the sources it is scraped from and in which order.
package products

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"versionhistory/internal/components/textutil"
	"versionhistory/internal/ledger"
	"versionhistory/internal/reconcile"
	"versionhistory/internal/scrapers"
	"versionhistory/internal/scrapers/adobe"
	"versionhistory/internal/scrapers/bucardo"
	"versionhistory/internal/scrapers/chocolatey"
	"versionhistory/internal/scrapers/clamav"
	"versionhistory/internal/scrapers/drupal"
	"versionhistory/internal/scrapers/exchange"
	"versionhistory/internal/scrapers/snapfiles"
	"versionhistory/internal/scrapers/sqlserverbuilds"
	"versionhistory/internal/scrapers/virten"
	"versionhistory/internal/scrapers/virtualbox"
	"versionhistory/internal/scrapers/wikipedia"

	"github.com/antzucaro/matchr"
)

var ErrUnknownProduct = errors.New("unknown product")

// SourcesFunc builds the sources of a product in merge order.
type SourcesFunc func(client *scrapers.Client) []reconcile.Source

type Product struct {
	Name   string
	Schema ledger.Schema
	// Exclude rejects versions that are not releases, nil keeps everything.
	Exclude func(version string) bool
	// Incremental products default to merging into the previous ledger.
	Incremental bool
	Sources     SourcesFunc
}

// DefaultFile is the ledger file name of the product.
func (p Product) DefaultFile() string {
	return p.Name + ".csv"
}

func (p Product) DefaultMode() reconcile.Mode {
	if p.Incremental {
		return reconcile.ModePrevious
	}
	return reconcile.ModeStandalone
}

// SourceNames lists the source names in merge order, the sources are built
// but never fetched.
func (p Product) SourceNames(client *scrapers.Client) []string {
	sources := p.Sources(client)
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Name()
	}
	return out
}

func pages(sources ...scrapers.Pages) []reconcile.Source {
	out := make([]reconcile.Source, len(sources))
	for i, s := range sources {
		out[i] = s
	}
	return out
}

var registry = []Product{
	{
		Name:        "flash",
		Schema:      ledger.NewSchema(),
		Incremental: true,
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(
				adobe.NewFlash(client, adobe.FlashURL),
				snapfiles.New(client, snapfiles.FlashURL),
			)
		},
	},
	{
		Name:   "reader",
		Schema: ledger.NewSchema(),
		Sources: func(client *scrapers.Client) []reconcile.Source {
			updates := chocolatey.Package{
				ID:            "adobereader-update",
				VersionColumn: 0,
				DateColumn:    2,
				Pattern:       chocolatey.DottedTwo,
			}
			return pages(
				adobe.NewReader(client, adobe.ReaderURL),
				chocolatey.New(client, chocolatey.BaseURL, updates),
			)
		},
	},
	{
		Name:        "clamav",
		Schema:      ledger.NewSchema(),
		Incremental: true,
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(
				clamav.New(client, clamav.URLs...),
				chocolatey.New(client, chocolatey.BaseURL, chocolatey.NewPackage("clamav", chocolatey.AnyVersion)),
			)
		},
	},
	{
		Name:    "drupal",
		Schema:  ledger.NewSchema(),
		Exclude: drupal.IsDev,
		Sources: func(client *scrapers.Client) []reconcile.Source {
			out := pages(drupal.NewOldReleases(client, drupal.OldReleasesURL))
			for _, major := range drupal.NewCrawler(client, drupal.ReleasesURL, drupal.Majors...).Sources() {
				out = append(out, major)
			}
			return out
		},
	},
	{
		Name:   "chrome",
		Schema: ledger.NewSchema(),
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(
				wikipedia.NewChrome(client, wikipedia.ChromeURL),
				chocolatey.New(client, chocolatey.BaseURL, chocolatey.NewPackage("GoogleChrome", chocolatey.DottedTwo)),
			)
		},
	},
	{
		Name:   "java",
		Schema: ledger.NewSchema(ledger.FieldVersionMajor),
		Sources: func(client *scrapers.Client) []reconcile.Source {
			java := func(id string) chocolatey.Package {
				p := chocolatey.NewPackage(id, chocolatey.JavaPattern)
				p.Rewrite = chocolatey.JavaRewrite
				return p
			}
			return pages(
				wikipedia.NewJava(client, wikipedia.JavaURL),
				chocolatey.New(client, chocolatey.BaseURL,
					java("oraclejdk"),
					java("jre8"),
					java("corretto11jdk"),
					java("openjdk11"),
				),
			)
		},
	},
	{
		Name:        "edge",
		Schema:      ledger.NewSchema(),
		Incremental: true,
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(
				chocolatey.New(client, chocolatey.BaseURL, chocolatey.NewPackage("microsoft-edge", chocolatey.DottedShort)),
			)
		},
	},
	{
		Name:        "exchange",
		Schema:      ledger.NewSchema(ledger.FieldVersionShort, ledger.FieldDescription),
		Incremental: true,
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(
				exchange.NewMicrosoft(client, exchange.MicrosoftURL),
				exchange.NewBuildNumbers(client, exchange.BuildNumbersURL),
			)
		},
	},
	{
		Name:   "mssql",
		Schema: ledger.NewSchema(ledger.FieldDescription),
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return []reconcile.Source{sqlserverbuilds.New(client, sqlserverbuilds.URL)}
		},
	},
	{
		Name:        "virtualbox",
		Schema:      ledger.NewSchema(),
		Incremental: true,
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(
				virtualbox.New(client, virtualbox.URLs()...),
				chocolatey.New(client, chocolatey.BaseURL, chocolatey.NewPackage("virtualbox", chocolatey.AnyVersion)),
			)
		},
	},
	{
		Name:        "postgres",
		Schema:      ledger.NewSchema(),
		Incremental: true,
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(
				chocolatey.New(client, chocolatey.BaseURL, chocolatey.NewPackage("postgresql", chocolatey.AnyVersion)),
				bucardo.New(client, bucardo.URL),
			)
		},
	},
	{
		Name:   "vlc",
		Schema: ledger.NewSchema(),
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(wikipedia.NewVLC(client, wikipedia.VLCURL))
		},
	},
	{
		Name:   "horizonview",
		Schema: ledger.NewSchema(),
		Sources: func(client *scrapers.Client) []reconcile.Source {
			return pages(
				chocolatey.New(client, chocolatey.BaseURL, chocolatey.NewPackage("vmware-horizon-client", chocolatey.DottedSingle)),
			)
		},
	},
	{
		Name:   "workstation",
		Schema: ledger.NewSchema(),
		Sources: func(client *scrapers.Client) []reconcile.Source {
			workstation := chocolatey.Package{
				ID:            "vmwareworkstation",
				VersionColumn: 0,
				DateColumn:    2,
				Pattern:       chocolatey.AnyVersion,
			}
			return pages(
				chocolatey.New(client, chocolatey.BaseURL, workstation),
				virten.New(client, virten.WorkstationURL),
			)
		},
	},
}

// All returns every product sorted by name.
func All() []Product {
	out := slices.Clone(registry)
	slices.SortFunc(out, func(a, b Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = p.Name
	}
	return out
}

// suggestThreshold is the minimum Jaro-Winkler similarity of a suggestion.
const suggestThreshold = 0.7

// Suggest returns the known product closest to name.
func Suggest(name string) (string, bool) {
	name = textutil.NormalizeName(name)
	best := ""
	bestScore := 0.0
	for _, p := range registry {
		score := matchr.JaroWinkler(name, p.Name, false)
		if score > bestScore {
			best = p.Name
			bestScore = score
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return best, true
}

// Get looks a product up by name, case insensitive.
func Get(name string) (Product, error) {
	normalized := textutil.NormalizeName(name)
	for _, p := range registry {
		if p.Name == normalized {
			return p, nil
		}
	}
	if suggestion, ok := Suggest(name); ok {
		return Product{}, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownProduct, name, suggestion)
	}
	return Product{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownProduct, name, strings.Join(Names(), ", "))
}
