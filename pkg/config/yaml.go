package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/cordyceps/pkg/state"
)

// NoRecurseTag marks a YAML value as opaque: `widget: !norecurse {v: 1}`.
const NoRecurseTag = "!norecurse"

type yamlFile struct {
	Debug         bool      `yaml:"debug"`
	Scheduler     string    `yaml:"scheduler"`
	FrameInterval string    `yaml:"frame_interval"`
	NoRecurse     []string  `yaml:"no_recurse"`
	State         yaml.Node `yaml:"state"`
}

func decodeYAML(data []byte) (*document, error) {
	var raw yamlFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	doc := &document{
		Debug:         raw.Debug,
		Scheduler:     raw.Scheduler,
		FrameInterval: raw.FrameInterval,
		NoRecurse:     raw.NoRecurse,
	}
	if raw.State.Kind == 0 {
		return doc, nil
	}

	v, err := yamlValue(&raw.State)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
	case map[string]any:
		doc.State = t
	default:
		return nil, fmt.Errorf("line %d: state must be a mapping", raw.State.Line)
	}
	return doc, nil
}

// yamlValue converts n to plain Go values, wrapping nodes tagged
// !norecurse in state.NoRecurse.
func yamlValue(n *yaml.Node) (any, error) {
	if n.Tag == NoRecurseTag {
		plain := *n
		plain.Tag = ""
		v, err := yamlValue(&plain)
		if err != nil {
			return nil, err
		}
		return state.Opaque(v), nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		if err := yamlMapping(n, out); err != nil {
			return nil, err
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
}

func yamlMapping(n *yaml.Node, out map[string]any) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.ShortTag() == "!!merge" {
			if err := yamlMerge(val, out); err != nil {
				return err
			}
			continue
		}
		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: state keys must be scalars", key.Line)
		}
		v, err := yamlValue(val)
		if err != nil {
			return err
		}
		out[key.Value] = v
	}
	return nil
}

// yamlMerge applies a `<<` merge key. Keys already present win.
func yamlMerge(n *yaml.Node, out map[string]any) error {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	var sources []*yaml.Node
	switch n.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{n}
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if c.Kind == yaml.AliasNode {
				c = c.Alias
			}
			sources = append(sources, c)
		}
	default:
		return fmt.Errorf("line %d: merge value must be a mapping", n.Line)
	}
	for _, src := range sources {
		merged := make(map[string]any)
		if err := yamlMapping(src, merged); err != nil {
			return err
		}
		for k, v := range merged {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return nil
}
