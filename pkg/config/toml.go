package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type tomlFile struct {
	Debug         bool           `toml:"debug"`
	Scheduler     string         `toml:"scheduler"`
	FrameInterval string         `toml:"frame_interval"`
	NoRecurse     []string       `toml:"no_recurse"`
	State         map[string]any `toml:"state"`
}

func decodeTOML(data []byte) (*document, error) {
	var raw tomlFile
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}
	// Keys nested under state land in an interface map, which toml does
	// not mark as decoded.
	var unknown []string
	for _, k := range meta.Undecoded() {
		if len(k) > 0 && k[0] == "state" {
			continue
		}
		unknown = append(unknown, k.String())
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(unknown, ", "))
	}

	doc := &document{
		Debug:         raw.Debug,
		Scheduler:     raw.Scheduler,
		FrameInterval: raw.FrameInterval,
		NoRecurse:     raw.NoRecurse,
	}
	if meta.IsDefined("state") {
		doc.State = tomlValue(raw.State).(map[string]any)
	}
	return doc, nil
}

// tomlValue normalizes decoded TOML: arrays of tables become []any so every
// array in the tree has the same shape.
func tomlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = tomlValue(child)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = tomlValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = tomlValue(child)
		}
		return out
	default:
		return v
	}
}
