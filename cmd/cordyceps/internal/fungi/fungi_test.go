package fungi

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/go-drift/cordyceps/pkg/cordyceps"
	"github.com/go-drift/cordyceps/pkg/errors"
	"github.com/go-drift/cordyceps/pkg/frame"
	"github.com/go-drift/cordyceps/pkg/host/htmldom"
	"github.com/go-drift/cordyceps/pkg/state"
)

func setup(t *testing.T, markup string, init state.Tree) (*htmldom.Document, *cordyceps.Container, *frame.Loop) {
	t.Helper()
	doc, err := htmldom.ParseString(markup)
	if err != nil {
		t.Fatal(err)
	}
	loop := frame.NewLoop(frame.ModeImmediate, 0)
	c := cordyceps.New(init,
		cordyceps.WithHost(doc),
		cordyceps.WithScheduler(loop),
		cordyceps.WithLogger(zerolog.Nop()),
	)
	if err := Register(c); err != nil {
		t.Fatal(err)
	}
	c.InfectAll(nil)
	return doc, c, loop
}

func body(t *testing.T, doc *htmldom.Document) string {
	t.Helper()
	s := doc.String()
	start := strings.Index(s, "<body>")
	end := strings.Index(s, "</body>")
	if start < 0 || end < 0 {
		t.Fatalf("no body in %s", s)
	}
	return s[start+len("<body>") : end]
}

func TestText(t *testing.T) {
	doc, c, loop := setup(t,
		`<span data-cordyceps-infected-by="text" data-state-key="n"></span>`+
			`<span data-cordyceps-infected-by="text" data-state-key="missing">keep</span>`+
			`<span data-cordyceps-infected-by="text">nokey</span>`,
		state.Tree{"n": 1},
	)
	if got, want := body(t, doc), `<span data-state-key="n">1</span><span data-state-key="missing">keep</span><span>nokey</span>`; got != want {
		t.Errorf("after infection = %s, want %s", got, want)
	}

	c.UpdateState(state.Tree{"n": 2})
	loop.Pump()
	if got, want := body(t, doc), `<span data-state-key="n">2</span><span data-state-key="missing">keep</span><span>nokey</span>`; got != want {
		t.Errorf("after update = %s, want %s", got, want)
	}
}

func TestAttr(t *testing.T) {
	doc, c, loop := setup(t,
		`<img data-cordyceps-infected-by="attr" data-state-key="img.src" data-state-attr="src"/>`,
		state.Tree{"img": state.Tree{"src": "a.png"}},
	)
	c.UpdateState(state.Tree{"img": state.Tree{"src": "b.png"}})
	loop.Pump()

	if got, want := body(t, doc), `<img data-state-key="img.src" data-state-attr="src" src="b.png"/>`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestMarkup(t *testing.T) {
	var reported []*errors.Error
	defer errors.SetHandler(errors.SetHandler(&hostErrors{errs: &reported}))

	doc, c, loop := setup(t,
		`<div data-cordyceps-infected-by="markup" data-state-key="m"></div>`,
		state.Tree{"m": "<p>one</p>", "other": 0},
	)
	if got, want := body(t, doc), `<p data-state-key="m">one</p>`; got != want {
		t.Errorf("after infection = %s, want %s", got, want)
	}

	c.UpdateState(state.Tree{"other": 1})
	loop.Pump()
	first := c.Bindings()[0].Element

	c.UpdateState(state.Tree{"m": "<em>two</em>"})
	loop.Pump()
	if got, want := body(t, doc), `<em data-state-key="m">two</em>`; got != want {
		t.Errorf("after update = %s, want %s", got, want)
	}
	if c.Bindings()[0].Element == first {
		t.Error("binding should track the replacement element")
	}

	c.UpdateState(state.Tree{"m": "plain text"})
	loop.Pump()
	if got, want := body(t, doc), `<em data-state-key="m">two</em>`; got != want {
		t.Errorf("non-element markup should be ignored, got %s", got)
	}
	if len(reported) != 1 || reported[0].Kind != errors.KindHost || reported[0].Fungus != NameMarkup {
		t.Fatalf("reported = %v, want one host error from markup", reported)
	}
	if !strings.Contains(reported[0].Error(), "m: fragment") {
		t.Errorf("error should name the state key, got %v", reported[0])
	}
}

type hostErrors struct {
	errs *[]*errors.Error
}

func (h *hostErrors) HandleError(err *errors.Error)             { *h.errs = append(*h.errs, err) }
func (h *hostErrors) HandlePanic(*errors.PanicError)            {}
func (h *hostErrors) HandleCallbackError(*errors.CallbackError) {}

func TestRegisterTwice(t *testing.T) {
	c := cordyceps.New(nil, cordyceps.WithLogger(zerolog.Nop()))
	if err := Register(c); err != nil {
		t.Fatal(err)
	}
	if err := Register(c); err == nil {
		t.Error("second Register should fail on duplicate names")
	}
}
