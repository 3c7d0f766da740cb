// Package config loads the settings the renderer and the command line share. Values come
// from defaults, the YAML config file, MDCAT_* environment variables and flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/guregu/null.v4"

	"github.com/elseano/mdcat/pkg/images"
	"github.com/elseano/mdcat/pkg/styles"
	"github.com/elseano/mdcat/pkg/terminal"
	"github.com/elseano/mdcat/pkg/util"
)

const (
	ImagesAuto = "auto"
	ImagesOn   = "on"
	ImagesOff  = "off"

	EnvPrefix = "MDCAT"
)

type Config struct {
	Theme     string `mapstructure:"theme"`
	ThemeFile string `mapstructure:"theme_file"`

	Images           string `mapstructure:"images"`         // auto, on or off
	ImageProtocol    string `mapstructure:"image_protocol"` // overrides detection when set
	ImageBlocks      bool   `mapstructure:"image_blocks"`
	ImageDescribe    bool   `mapstructure:"image_describe"`
	ImageMaxHeight   int    `mapstructure:"image_max_height"`
	ImagePlaceholder string `mapstructure:"image_placeholder"`

	LineNumbers   bool `mapstructure:"line_numbers"`
	Stats         bool `mapstructure:"stats"`
	GuessLanguage bool `mapstructure:"guess_language"`

	NoColor  bool `mapstructure:"no_color"`
	ANSIOnly bool `mapstructure:"ansi_only"`
	Columns  int  `mapstructure:"columns"`

	LocalOnly    bool          `mapstructure:"local_only"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	Paginate bool   `mapstructure:"paginate"`
	Pager    string `mapstructure:"pager"`

	Verbose int `mapstructure:"verbose"`
}

func Defaults() Config {
	return Config{
		Theme:            styles.DefaultTheme,
		Images:           ImagesAuto,
		ImagePlaceholder: images.DefaultPlaceholder,
		FetchTimeout:     images.DefaultTimeout,
		Pager:            "less -r",
	}
}

// SetDefaults registers every key with v, which also makes each key visible to
// environment variable lookup.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("theme", d.Theme)
	v.SetDefault("theme_file", d.ThemeFile)
	v.SetDefault("images", d.Images)
	v.SetDefault("image_protocol", d.ImageProtocol)
	v.SetDefault("image_blocks", d.ImageBlocks)
	v.SetDefault("image_describe", d.ImageDescribe)
	v.SetDefault("image_max_height", d.ImageMaxHeight)
	v.SetDefault("image_placeholder", d.ImagePlaceholder)
	v.SetDefault("line_numbers", d.LineNumbers)
	v.SetDefault("stats", d.Stats)
	v.SetDefault("guess_language", d.GuessLanguage)
	v.SetDefault("no_color", d.NoColor)
	v.SetDefault("ansi_only", d.ANSIOnly)
	v.SetDefault("columns", d.Columns)
	v.SetDefault("local_only", d.LocalOnly)
	v.SetDefault("fetch_timeout", d.FetchTimeout)
	v.SetDefault("paginate", d.Paginate)
	v.SetDefault("pager", d.Pager)
	v.SetDefault("verbose", d.Verbose)
}

// DefaultPath is where the config file is looked for when none is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "mdcat", "config.yaml")
}

// New returns a viper instance with defaults and environment lookup configured.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the result. A missing default config file
// is not an error, a missing explicit one is.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		util.Logger.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Images {
	case ImagesAuto, ImagesOn, ImagesOff:
	default:
		return fmt.Errorf("images must be one of auto, on or off, got %q", c.Images)
	}

	if c.ImageProtocol != "" {
		if _, err := terminal.ParseImageProtocol(c.ImageProtocol); err != nil {
			return err
		}
	}

	if c.ThemeFile == "" && c.Theme != "" {
		if _, err := styles.Builtin(c.Theme); err != nil {
			return err
		}
	}

	if c.Columns < 0 {
		return fmt.Errorf("columns must not be negative, got %d", c.Columns)
	}
	if c.ImageMaxHeight < 0 {
		return fmt.Errorf("image_max_height must not be negative, got %d", c.ImageMaxHeight)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}

	return nil
}

// Overrides are the capability overrides the settings ask for. Settings left at their
// defaults leave detection alone.
func (c Config) Overrides() terminal.Overrides {
	var o terminal.Overrides

	if c.NoColor {
		o.NoColor = null.BoolFrom(true)
	}
	if c.ANSIOnly {
		o.ANSIOnly = null.BoolFrom(true)
	}
	if c.Images == ImagesOff {
		o.NoImages = null.BoolFrom(true)
	}
	if c.ImageProtocol != "" {
		o.ImageProtocol = null.StringFrom(c.ImageProtocol)
	}
	if c.Columns > 0 {
		o.Width = null.IntFrom(int64(c.Columns))
	}

	return o
}

// BlockImages reports whether images may be drawn with half-block characters on terminals
// without an image protocol.
func (c Config) BlockImages() bool {
	return c.Images != ImagesOff && (c.ImageBlocks || c.Images == ImagesOn)
}

func (c Config) LoadTheme() (*styles.Theme, error) {
	return styles.Load(c.Theme, c.ThemeFile)
}
