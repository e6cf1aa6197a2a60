package cordyceps

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/go-drift/cordyceps/pkg/errors"
	"github.com/go-drift/cordyceps/pkg/host"
	"github.com/go-drift/cordyceps/pkg/state"
)

const (
	callbackInit        = "OnInit"
	callbackStateChange = "OnStateChange"
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateName checks that name can be used as a fungus name and as the
// value of the marker attribute.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", errors.ErrInvalidName, name)
	}
	return nil
}

// NewFungus registers a fungus declared by def under name.
//
// It fails with errors.ErrInvalidName for names that are empty or not
// identifier-like and with errors.ErrDuplicateFungus when name is taken.
func (c *Container) NewFungus(name string, def Definition) error {
	return c.register("cordyceps.NewFungus", name, def.Factory())
}

// MustNewFungus is like NewFungus but panics on error. It returns c so
// registrations can be chained.
func (c *Container) MustNewFungus(name string, def Definition) *Container {
	if err := c.NewFungus(name, def); err != nil {
		panic(err)
	}
	return c
}

// Register adds a fungus whose instances are created by factory.
func (c *Container) Register(name string, factory Factory) error {
	return c.register("cordyceps.Register", name, factory)
}

func (c *Container) register(op, name string, factory Factory) error {
	if err := ValidateName(name); err != nil {
		return &errors.Error{Op: op, Kind: errors.KindConfig, Fungus: name, Err: err}
	}
	if factory == nil {
		return &errors.Error{Op: op, Kind: errors.KindConfig, Fungus: name, Err: errors.ErrNilFactory}
	}
	if _, ok := c.fungi[name]; ok {
		return &errors.Error{
			Op:     op,
			Kind:   errors.KindConfig,
			Fungus: name,
			Err:    fmt.Errorf("%w: %s", errors.ErrDuplicateFungus, name),
		}
	}
	c.fungi[name] = factory
	c.names = append(c.names, name)
	return nil
}

// InfectAll binds every element under scope that carries a registered
// fungus's marker. A nil scope searches the whole document. Fungi are
// processed in registration order and elements in document order.
//
// The marker is removed before binding, so an element is infected at most
// once however often InfectAll runs. Each new binding gets OnInit with the
// current state; a Replace result swaps the element immediately. InfectAll
// runs synchronously and returns the number of new bindings.
func (c *Container) InfectAll(scope host.Element) int {
	if c.host == nil {
		return 0
	}
	if scope == nil {
		scope = c.host.Root()
	}

	total := 0
	for _, name := range c.names {
		els := c.host.FindByAttr(scope, host.InfectedByAttr, name)
		for _, el := range els {
			c.infect(name, el)
		}
		c.metrics.AddBindings(name, len(els))
		total += len(els)

		if c.debug {
			c.log.Debug().Msgf("Infected %d Element(s) with Fungus %q", len(els), name)
		}
	}
	return total
}

func (c *Container) infect(name string, el host.Element) {
	c.host.RemoveAttr(el, host.InfectedByAttr)

	f := c.fungi[name]()
	if f == nil {
		f = Definition{}.Factory()()
	}
	b := &Binding{
		ID:      uuid.NewString(),
		Name:    name,
		Element: el,
		Fungus:  f,
	}
	res := c.call(b, callbackInit, func() Result {
		return b.Fungus.OnInit(el, state.Clone(c.live))
	})
	c.apply(b, res)
	c.bindings = append(c.bindings, b)
}

// call runs a lifecycle callback. A panic is reported and treated as Keep.
func (c *Container) call(b *Binding, callback string, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.IncCallbackPanic(b.Name, callback)
			errors.ReportCallbackError(&errors.CallbackError{
				Fungus:     b.Name,
				Binding:    b.ID,
				Callback:   callback,
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
			})
			res = Keep()
		}
	}()
	return fn()
}

// apply swaps the binding's element when res asks for it.
func (c *Container) apply(b *Binding, res Result) {
	repl, ok := res.Replacement()
	if !ok {
		return
	}
	if c.host != nil {
		c.host.Replace(b.Element, repl)
	}
	b.Element = repl
	c.metrics.IncReplacement(b.Name)

	if c.debug {
		c.log.Debug().Str("fungus", b.Name).Str("binding", b.ID).Msg("replaced element")
	}
}
