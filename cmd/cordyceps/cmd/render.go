package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/cordyceps/cmd/cordyceps/internal/fungi"
	"github.com/go-drift/cordyceps/pkg/config"
	"github.com/go-drift/cordyceps/pkg/cordyceps"
	"github.com/go-drift/cordyceps/pkg/host/htmldom"
	"github.com/go-drift/cordyceps/pkg/metrics"
	"github.com/go-drift/cordyceps/pkg/state"
)

// settleLimit bounds the frames render waits for the loop to drain.
const settleLimit = 1000

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Infect an HTML document and print the result",
		Long: `Load the initial state, infect an HTML document with the built-in fungi,
apply updates and print the resulting document.

Built-in fungi, selected with data-cordyceps-infected-by:
  text      Sets the element's text to the state value at data-state-key
  attr      Sets the attribute named by data-state-attr to that value
  markup    Replaces the element with the HTML fragment held in that value

Flags:
  --config PATH      Configuration file (.yaml, .yml, .toml, .hcl).
                     Defaults to ./cordyceps.{yaml,yml,toml,hcl} when present
  --html PATH        HTML document to render, "-" for stdin (required)
  --set KEY=VALUE    Apply an update; dotted keys build nested objects.
                     VALUE is read as YAML. May be repeated,
                     each --set is a separate update
  --replace          Replace the state with the first --set instead of merging
  --debug            Log infections and updates
  --metrics          Print update and binding counters to stderr`,
		Usage: "cordyceps render --html PATH [--config PATH] [--set KEY=VALUE ...] [--replace] [--debug] [--metrics]",
		Run:   runRender,
	})
}

type renderOptions struct {
	configPath string
	htmlPath   string
	sets       []string
	replace    bool
	debug      bool
	metrics    bool
}

func parseRenderArgs(args []string) (renderOptions, error) {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", arg)
			}
			i++
			return args[i], nil
		}
		var err error
		switch {
		case arg == "--config":
			opts.configPath, err = value()
		case strings.HasPrefix(arg, "--config="):
			opts.configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--html":
			opts.htmlPath, err = value()
		case strings.HasPrefix(arg, "--html="):
			opts.htmlPath = strings.TrimPrefix(arg, "--html=")
		case arg == "--set":
			var s string
			s, err = value()
			opts.sets = append(opts.sets, s)
		case strings.HasPrefix(arg, "--set="):
			opts.sets = append(opts.sets, strings.TrimPrefix(arg, "--set="))
		case arg == "--replace":
			opts.replace = true
		case arg == "--debug":
			opts.debug = true
		case arg == "--metrics":
			opts.metrics = true
		default:
			return opts, fmt.Errorf("unknown flag %q", arg)
		}
		if err != nil {
			return opts, err
		}
	}
	if opts.htmlPath == "" {
		return opts, fmt.Errorf("--html is required\n\nUsage: cordyceps render --html PATH")
	}
	return opts, nil
}

func runRender(args []string) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}

	updates := make([]state.Tree, 0, len(opts.sets))
	for _, s := range opts.sets {
		update, err := parseSet(s)
		if err != nil {
			return err
		}
		updates = append(updates, update)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.debug {
		cfg.Debug = true
	}

	doc, err := readDocument(opts.htmlPath)
	if err != nil {
		return err
	}

	m := metrics.New("")
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return err
	}

	c, loop := cfg.NewContainer(
		cordyceps.WithHost(doc),
		cordyceps.WithLogger(newLogger(cfg.Debug)),
		cordyceps.WithMetrics(m),
	)
	if err := fungi.Register(c); err != nil {
		return err
	}
	c.InfectAll(nil)

	for i, update := range updates {
		if opts.replace && i == 0 {
			c.ReplaceState(update)
			continue
		}
		c.UpdateState(update)
	}
	if err := loop.Settle(settleLimit); err != nil {
		return err
	}

	if err := doc.Render(stdout); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	fmt.Fprintln(stdout)

	if opts.metrics {
		return printMetrics(stderr, reg)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOptional(".")
	}
	return config.Load(path)
}

func readDocument(path string) (*htmldom.Document, error) {
	if path == "-" {
		return htmldom.Parse(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open html: %w", err)
	}
	defer f.Close()
	return htmldom.Parse(f)
}

// parseSet turns "a.b=value" into {"a": {"b": value}}. The value is decoded
// as YAML so numbers and booleans keep their type.
func parseSet(s string) (state.Tree, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return nil, fmt.Errorf("--set %q: want KEY=VALUE", s)
	}
	keys := state.SplitPath(strings.TrimSpace(key))
	if len(keys) == 0 {
		return nil, fmt.Errorf("--set %q: empty key", s)
	}
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("--set %q: empty path segment", s)
		}
	}

	var value any
	if raw != "" {
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
	}
	if value == nil {
		value = raw
	}

	leaf := state.Tree{keys[len(keys)-1]: value}
	for i := len(keys) - 2; i >= 0; i-- {
		leaf = state.Tree{keys[i]: leaf}
	}
	return leaf, nil
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, l := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			var labelStr string
			if len(labels) > 0 {
				labelStr = "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labelStr, metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				lines = append(lines, fmt.Sprintf("%s_count%s %d", mf.GetName(), labelStr, metric.GetHistogram().GetSampleCount()))
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
