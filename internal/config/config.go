package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the optional configuration file at the repository root.
const FileName = ".phrasereport.yml"

// Config captures CLI options sourced from config files or flags.
type Config struct {
	Suites []string `yaml:"suites"`

	OnlyTags    []string `yaml:"only_tag"`
	SkipTags    []string `yaml:"skip_tag"`
	SkipPhrases []string `yaml:"skip_phrase"`

	Format      string        `yaml:"format"`
	OutputDir   string        `yaml:"output_dir"`
	Concurrency int           `yaml:"concurrency"`
	StepTimeout time.Duration `yaml:"step_timeout"`
	Shell       string        `yaml:"shell"`
	TailLines   int           `yaml:"tail_lines"`
	Verbose     bool          `yaml:"verbose"`
	LogLevel    string        `yaml:"log_level"`
}

const (
	// FormatJSON renders reports as JSON.
	FormatJSON = "json"
	// FormatProto renders reports in protobuf wire format.
	FormatProto = "proto"

	// DefaultConcurrency is the number of test cases aggregated at once.
	DefaultConcurrency = 4
	// DefaultTailLines bounds the stderr captured as a failure reason.
	DefaultTailLines = 20
)

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		Format:      FormatJSON,
		Concurrency: DefaultConcurrency,
		TailLines:   DefaultTailLines,
		LogLevel:    "warn",
	}
}

// Load reads .phrasereport.yml from the repository root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

// Validate rejects values the run cannot honour.
func (c Config) Validate() error {
	switch c.Format {
	case FormatJSON, FormatProto:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.StepTimeout < 0 {
		return fmt.Errorf("step timeout must not be negative, got %s", c.StepTimeout)
	}
	return nil
}

func merge(base, override Config) Config {
	out := base

	if len(override.Suites) > 0 {
		out.Suites = append([]string{}, override.Suites...)
	}
	if len(override.OnlyTags) > 0 {
		out.OnlyTags = append([]string{}, override.OnlyTags...)
	}
	if len(override.SkipTags) > 0 {
		out.SkipTags = append([]string{}, override.SkipTags...)
	}
	if len(override.SkipPhrases) > 0 {
		out.SkipPhrases = append([]string{}, override.SkipPhrases...)
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.OutputDir != "" {
		out.OutputDir = override.OutputDir
	}
	if override.Concurrency != 0 {
		out.Concurrency = override.Concurrency
	}
	if override.StepTimeout != 0 {
		out.StepTimeout = override.StepTimeout
	}
	if override.Shell != "" {
		out.Shell = override.Shell
	}
	if override.TailLines != 0 {
		out.TailLines = override.TailLines
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.LogLevel != "" {
		out.LogLevel = override.LogLevel
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if len(flags.Suites.Values) > 0 {
		cfg.Suites = append([]string{}, flags.Suites.Values...)
	}
	if len(flags.OnlyTags.Values) > 0 {
		cfg.OnlyTags = append([]string{}, flags.OnlyTags.Values...)
	}
	if len(flags.SkipTags.Values) > 0 {
		cfg.SkipTags = append([]string{}, flags.SkipTags.Values...)
	}
	if len(flags.SkipPhrases.Values) > 0 {
		cfg.SkipPhrases = append([]string{}, flags.SkipPhrases.Values...)
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.OutputDir.Set {
		cfg.OutputDir = flags.OutputDir.Value
	}
	if flags.Concurrency.Set {
		cfg.Concurrency = flags.Concurrency.Value
	}
	if flags.StepTimeout.Set {
		cfg.StepTimeout = flags.StepTimeout.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.LogLevel.Set {
		cfg.LogLevel = flags.LogLevel.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Suites      SliceFlag
	OnlyTags    SliceFlag
	SkipTags    SliceFlag
	SkipPhrases SliceFlag
	Format      StringFlag
	OutputDir   StringFlag
	Concurrency IntFlag
	StepTimeout DurationFlag
	Verbose     BoolFlag
	LogLevel    StringFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}

// DurationFlag represents a duration flag and whether it was set.
type DurationFlag struct {
	Value time.Duration
	Set   bool
}
