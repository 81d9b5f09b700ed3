package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"

	"github.com/ByLCY/folio/layout"
)

//go:embed config.yaml
var defaultConfig []byte

type (
	FontConfig struct {
		Family string `yaml:"family"`
		Weight string `yaml:"weight,omitempty"`
		Italic bool   `yaml:"italic,omitempty"`
		Src    string `yaml:"src"`
	}

	LayoutConfig struct {
		Unit          string       `yaml:"unit"`
		TransformMode string       `yaml:"transform_mode"`
		WidthSlack    float64      `yaml:"width_slack"`
		Style         layout.Props `yaml:"style"`
	}

	RenderConfig struct {
		DebugFrames bool `yaml:"debug_frames"`
	}

	Config struct {
		Version int           `yaml:"version"`
		Layout  LayoutConfig  `yaml:"layout"`
		Fonts   []FontConfig  `yaml:"fonts"`
		Render  RenderConfig  `yaml:"render"`
		Logging LoggingConfig `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// only fields we defined are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the embedded defaults and validates the
// result. An empty path yields the defaults.
func LoadConfiguration(path string) (*Config, error) {
	cfg, err := unmarshalConfig(defaultConfig, &Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	if len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = unmarshalConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.Version != 1 {
		errs = multierr.Append(errs, fmt.Errorf("unsupported configuration version %d", cfg.Version))
	}
	if _, err := layout.ParseUnit(cfg.Layout.Unit); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("layout.unit: %w", err))
	}
	if _, err := parseMode(cfg.Layout.TransformMode); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.Layout.WidthSlack < 0 {
		errs = multierr.Append(errs, fmt.Errorf("layout.width_slack must not be negative"))
	}
	if err := layout.ValidateProps(cfg.Layout.Style); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("layout.style: %w", err))
	}
	for i, f := range cfg.Fonts {
		if f.Family == "" || f.Src == "" {
			errs = multierr.Append(errs, fmt.Errorf("fonts[%d]: family and src are required", i))
		}
	}
	for name, l := range map[string]LoggerConfig{"console": cfg.Logging.ConsoleLogger, "file": cfg.Logging.FileLogger} {
		switch l.Level {
		case "none", "normal", "debug":
		default:
			errs = multierr.Append(errs, fmt.Errorf("logging.%s.level must be one of none, normal, debug", name))
		}
		switch l.Mode {
		case "", "append", "overwrite":
		default:
			errs = multierr.Append(errs, fmt.Errorf("logging.%s.mode must be append or overwrite", name))
		}
	}
	if cfg.Logging.FileLogger.Level != "none" && cfg.Logging.FileLogger.Destination == "" {
		errs = multierr.Append(errs, fmt.Errorf("logging.file.destination is required when file logging is enabled"))
	}
	return errs
}

func parseMode(s string) (layout.TransformMode, error) {
	switch strings.ToLower(s) {
	case "", "corner":
		return layout.CornerMode, nil
	case "center":
		return layout.CenterMode, nil
	default:
		return layout.CornerMode, fmt.Errorf("layout.transform_mode must be corner or center, got %q", s)
	}
}

// LayoutContext returns the layout environment described by the
// configuration. Collaborators such as the shaper are left for the caller.
func (cfg *Config) LayoutContext() (layout.Context, error) {
	unit, err := layout.ParseUnit(cfg.Layout.Unit)
	if err != nil {
		return layout.Context{}, err
	}
	mode, err := parseMode(cfg.Layout.TransformMode)
	if err != nil {
		return layout.Context{}, err
	}
	return layout.Context{
		Unit:       unit,
		Mode:       mode,
		WidthSlack: cfg.Layout.WidthSlack,
		Style:      layout.Props{}.Merge(cfg.Layout.Style),
	}, nil
}

// Defaults returns the embedded default configuration.
func Defaults() []byte { return append([]byte(nil), defaultConfig...) }

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
