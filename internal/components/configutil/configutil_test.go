package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	UserAgent   string         `json:"user_agent"`
	Concurrency int            `json:"concurrency"`
	Products    map[string]int `json:"products"`
}

func write(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "dir/versionhistory.local.json5", LocalPath("dir/versionhistory.json5"))
	require.Equal(t, "config.local", LocalPath("config"))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "versionhistory.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	write(t, path, `{
		// comments and trailing commas are allowed
		user_agent: "versionhistory/1.0",
		concurrency: 4,
		products: {java: 2},
	}`)

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "versionhistory/1.0", cfg.UserAgent)
	require.Equal(t, 4, cfg.Concurrency)

	write(t, LocalPath(path), `{concurrency: 8, products: {drupal: 1}}`)

	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "versionhistory/1.0", cfg.UserAgent)
	require.Equal(t, 8, cfg.Concurrency)
	require.Equal(t, map[string]int{"java": 2, "drupal": 1}, cfg.Products)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))
	write(t, filepath.Join(root, "versionhistory.json5"), `{concurrency: 2}`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("versionhistory.json5")
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Concurrency)

	_, err = ReadRecursively[testConfig]("missing.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}
