// Package config loads the initial state and container settings for
// cordyceps from YAML, TOML or HCL files.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-drift/cordyceps/pkg/cordyceps"
	"github.com/go-drift/cordyceps/pkg/errors"
	"github.com/go-drift/cordyceps/pkg/frame"
	"github.com/go-drift/cordyceps/pkg/state"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// BaseName is the file name, without extension, probed by LoadOptional.
const BaseName = "cordyceps"

// probeOrder lists the extensions LoadOptional tries, first match wins.
var probeOrder = []string{".yaml", ".yml", ".toml", ".hcl"}

// Config is a resolved configuration.
type Config struct {
	// Debug enables container diagnostics.
	Debug bool
	// Mode is how the update loop is driven.
	Mode frame.Mode
	// FrameInterval is the loop's frame length in ModeFrame.
	FrameInterval time.Duration
	// NoRecurse lists the paths named by the no_recurse setting.
	NoRecurse []string
	// State is the initial state. Opaque values are wrapped in
	// state.NoRecurse, ready for cordyceps.New.
	State state.Tree
}

// document is the format-independent shape of a configuration file before
// defaults and validation.
type document struct {
	Debug         bool
	Scheduler     string
	FrameInterval string
	NoRecurse     []string
	State         state.Tree
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Mode:          frame.ModeFrame,
		FrameInterval: frame.DefaultInterval,
		State:         state.Tree{},
	}
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
}

// Load reads and resolves the configuration file at path.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, &errors.Error{Op: "config.Load", Kind: errors.KindConfig, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.Error{Op: "config.Load", Kind: errors.KindConfig, Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	return Parse(data, format, path)
}

// LoadOptional loads cordyceps.{yaml,yml,toml,hcl} from dir, or returns
// Default when none exists.
func LoadOptional(dir string) (*Config, error) {
	for _, ext := range probeOrder {
		path := filepath.Join(dir, BaseName+ext)
		if _, err := os.Stat(path); err != nil {
			if stderrors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, &errors.Error{Op: "config.LoadOptional", Kind: errors.KindConfig, Err: err}
		}
		return Load(path)
	}
	return Default(), nil
}

// Parse decodes data in the given format. name is used in error messages.
func Parse(data []byte, format Format, name string) (*Config, error) {
	var (
		doc *document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatTOML:
		doc, err = decodeTOML(data)
	case FormatHCL:
		doc, err = decodeHCL(data, name)
	default:
		return nil, &errors.Error{Op: "config.Parse", Kind: errors.KindConfig, Err: fmt.Errorf("unknown format %q", format)}
	}
	if err != nil {
		return nil, &errors.Error{
			Op:   "config.Parse",
			Kind: errors.KindParsing,
			Err:  &errors.ParseError{File: name, Format: string(format), Err: err},
		}
	}

	cfg, err := doc.resolve()
	if err != nil {
		return nil, &errors.Error{Op: "config.Parse", Kind: errors.KindConfig, Err: fmt.Errorf("%s: %w", name, err)}
	}
	return cfg, nil
}

func (d *document) resolve() (*Config, error) {
	cfg := Default()
	cfg.Debug = d.Debug

	mode, ok := frame.ParseMode(strings.TrimSpace(d.Scheduler))
	if !ok {
		return nil, fmt.Errorf("unknown scheduler %q (want frame or immediate)", d.Scheduler)
	}
	cfg.Mode = mode

	if s := strings.TrimSpace(d.FrameInterval); s != "" {
		interval, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("parse frame_interval: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("frame_interval must be positive, got %s", interval)
		}
		cfg.FrameInterval = interval
	}

	if d.State != nil {
		cfg.State = d.State
	}
	seen := make(map[string]bool, len(d.NoRecurse))
	for _, path := range d.NoRecurse {
		path = strings.TrimSpace(path)
		if seen[path] {
			continue
		}
		seen[path] = true
		if err := markOpaque(cfg.State, path); err != nil {
			return nil, err
		}
		cfg.NoRecurse = append(cfg.NoRecurse, path)
	}
	return cfg, nil
}

// markOpaque wraps the value at path in state.NoRecurse.
func markOpaque(t state.Tree, path string) error {
	keys := state.SplitPath(path)
	if len(keys) == 0 {
		return fmt.Errorf("no_recurse: empty path")
	}
	node := t
	for i, key := range keys {
		v, ok := node[key]
		if !ok {
			return fmt.Errorf("no_recurse: path %q not found in state", path)
		}
		if i == len(keys)-1 {
			if _, wrapped := v.(state.NoRecurse); !wrapped {
				node[key] = state.Opaque(v)
			}
			return nil
		}
		next, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("no_recurse: path %q: %q is not an object", path, strings.Join(keys[:i+1], state.PathSeparator))
		}
		node = next
	}
	return nil
}

// NewLoop builds the update loop described by c.
func (c *Config) NewLoop() *frame.Loop {
	return frame.NewLoop(c.Mode, c.FrameInterval)
}

// Options returns the container options described by c, with a scheduler
// driven by loop.
func (c *Config) Options(loop *frame.Loop) []cordyceps.Option {
	return []cordyceps.Option{
		cordyceps.WithDebug(c.Debug),
		cordyceps.WithScheduler(loop),
	}
}

// NewContainer creates a container from c's initial state and settings,
// together with the loop it schedules on. opts are applied last.
func (c *Config) NewContainer(opts ...cordyceps.Option) (*cordyceps.Container, *frame.Loop) {
	loop := c.NewLoop()
	all := append(c.Options(loop), opts...)
	return cordyceps.New(c.State, all...), loop
}
