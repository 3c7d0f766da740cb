package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elseano/mdcat/pkg/styles"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, styles.DefaultTheme, cfg.Theme)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
}

func TestConfigFile(t *testing.T) {
	path := writeConfig(t, `
theme: light
images: "off"
line_numbers: true
columns: 100
fetch_timeout: 3s
image_placeholder: "<img>"
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, ImagesOff, cfg.Images)
	assert.True(t, cfg.LineNumbers)
	assert.Equal(t, 100, cfg.Columns)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "<img>", cfg.ImagePlaceholder)
}

func TestEnvironmentBeatsFile(t *testing.T) {
	t.Setenv("MDCAT_THEME", "notty")
	t.Setenv("MDCAT_LOCAL_ONLY", "true")

	cfg, err := Load(New(), writeConfig(t, "theme: light\n"))
	require.NoError(t, err)

	assert.Equal(t, "notty", cfg.Theme)
	assert.True(t, cfg.LocalOnly)
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := map[string]func(c *Config){
		"images":         func(c *Config) { c.Images = "sometimes" },
		"protocol":       func(c *Config) { c.ImageProtocol = "sixel" },
		"theme":          func(c *Config) { c.Theme = "nosuchtheme" },
		"columns":        func(c *Config) { c.Columns = -1 },
		"max height":     func(c *Config) { c.ImageMaxHeight = -2 },
		"no fetch limit": func(c *Config) { c.FetchTimeout = 0 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Defaults().Validate())
}

func TestOverrides(t *testing.T) {
	assert.Equal(t, Defaults().Overrides(), Defaults().Overrides())
	assert.False(t, Defaults().Overrides().NoImages.Valid)
	assert.False(t, Defaults().Overrides().Width.Valid)

	cfg := Defaults()
	cfg.Images = ImagesOff
	cfg.NoColor = true
	cfg.ImageProtocol = "kitty"
	cfg.Columns = 72

	o := cfg.Overrides()
	assert.True(t, o.NoImages.Bool)
	assert.True(t, o.NoColor.Bool)
	assert.Equal(t, "kitty", o.ImageProtocol.String)
	assert.Equal(t, int64(72), o.Width.Int64)
}

func TestBlockImages(t *testing.T) {
	cfg := Defaults()
	assert.False(t, cfg.BlockImages())

	cfg.Images = ImagesOn
	assert.True(t, cfg.BlockImages())

	cfg.Images = ImagesOff
	cfg.ImageBlocks = true
	assert.False(t, cfg.BlockImages())
}
