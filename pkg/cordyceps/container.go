package cordyceps

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/go-drift/cordyceps/pkg/frame"
	"github.com/go-drift/cordyceps/pkg/host"
	"github.com/go-drift/cordyceps/pkg/logging"
	"github.com/go-drift/cordyceps/pkg/metrics"
	"github.com/go-drift/cordyceps/pkg/state"
)

// Container owns the state tree, the fungus registry and the bindings.
type Container struct {
	live   state.Tree
	opaque state.PathSet

	debug     bool
	host      host.Host
	scheduler frame.Scheduler
	log       zerolog.Logger
	logSet    bool
	metrics   *metrics.Collectors

	names    []string
	fungi    map[string]Factory
	bindings []*Binding
}

// Option configures a Container.
type Option func(*Container)

// WithDebug enables diagnostic logging of every update and infection.
func WithDebug(debug bool) Option {
	return func(c *Container) { c.debug = debug }
}

// WithHost sets the document the container infects.
func WithHost(h host.Host) Option {
	return func(c *Container) { c.host = h }
}

// WithScheduler sets the deferred-execution primitive for updates.
func WithScheduler(s frame.Scheduler) Option {
	return func(c *Container) { c.scheduler = s }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Container) {
		c.log = l
		c.logSet = true
	}
}

// WithMetrics records updates and bindings on m.
func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Container) { c.metrics = m }
}

// New creates a container from an initial state tree. Values wrapped in
// state.NoRecurse are unwrapped and their paths are never merged key by key.
//
// Without WithScheduler the container queues updates on its own
// frame.Loop, available through Loop, which the caller must pump or run.
func New(init state.Tree, opts ...Option) *Container {
	live, opaque := state.Resolve(init)
	c := &Container{
		live:   live,
		opaque: opaque,
		fungi:  make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = frame.NewLoop(frame.ModeImmediate, 0)
	}
	if !c.logSet {
		logOpts := logging.DefaultOptions("cordyceps")
		if c.debug && logOpts.Level > zerolog.DebugLevel {
			logOpts.Level = zerolog.DebugLevel
		}
		c.log = logging.New(os.Stderr, logOpts)
	}
	return c
}

// State returns the live state tree. The tree is owned by the container and
// changes with every applied update.
func (c *Container) State() state.Tree {
	return c.live
}

// NoRecursePaths returns the opaque paths found in the initial state.
func (c *Container) NoRecursePaths() []string {
	return c.opaque.Paths()
}

// Debug reports whether diagnostics are enabled.
func (c *Container) Debug() bool {
	return c.debug
}

// Host returns the infected document, or nil.
func (c *Container) Host() host.Host {
	return c.host
}

// Loop returns the container's scheduler when it is a *frame.Loop.
func (c *Container) Loop() *frame.Loop {
	loop, _ := c.scheduler.(*frame.Loop)
	return loop
}

// Bindings returns a snapshot of the bindings in infection order.
func (c *Container) Bindings() []Binding {
	out := make([]Binding, len(c.bindings))
	for i, b := range c.bindings {
		out[i] = *b
	}
	return out
}

// Fungi returns the registered fungus names in registration order.
func (c *Container) Fungi() []string {
	return append([]string(nil), c.names...)
}
