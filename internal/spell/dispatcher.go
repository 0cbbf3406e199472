package spell

import (
	"log/slog"

	"github.com/dgallion1/grimoire/internal/doctree"
)

type options struct {
	tables bool
	log    *slog.Logger
}

// Option configures an extraction.
type Option func(*options)

// WithTables appends collected tables to the content. By default tables
// are walked but left out of the record.
func WithTables() Option {
	return func(o *options) { o.tables = true }
}

// WithLogger logs every state transition at debug level.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// Dispatcher forwards walk callbacks to the active state and swaps in a
// fresh state whenever a handler asks for a transition.
type Dispatcher struct {
	x      *extraction
	state  State
	active handler
}

// NewDispatcher returns a dispatcher positioned at AwaitSource with an
// empty spell. Pass its Walk method to doctree.Walk.
func NewDispatcher(opts ...Option) *Dispatcher {
	x := &extraction{spell: &Spell{}}
	for _, o := range opts {
		o(&x.opts)
	}
	return &Dispatcher{
		x:      x,
		state:  AwaitSource,
		active: newHandler(AwaitSource, x),
	}
}

// Walk is a doctree.Walker.
func (d *Dispatcher) Walk(n *doctree.Node, entering bool) (doctree.WalkStatus, error) {
	var (
		st  step
		err error
	)
	if entering {
		st, err = d.active.visit(n)
	} else {
		st, err = d.active.depart(n)
	}
	if err != nil {
		return doctree.WalkStop, err
	}

	switch st.kind {
	case stepSkipChildren:
		if entering {
			return doctree.WalkSkipChildren, nil
		}
	case stepTransition:
		if d.x.opts.log != nil {
			d.x.opts.log.Debug("state transition",
				"from", d.state.String(),
				"to", st.next.String(),
				"node", n.Kind,
				"entering", entering,
			)
		}
		d.state = st.next
		d.active = newHandler(st.next, d.x)
	}
	return doctree.WalkContinue, nil
}

// State returns the active state.
func (d *Dispatcher) State() State {
	return d.state
}

// Spell returns the record being built. It is only complete once a walk
// has finished without error.
func (d *Dispatcher) Spell() *Spell {
	return d.x.spell
}

// Parse extracts a spell from doc. On failure no record is returned.
func Parse(doc *doctree.Node, opts ...Option) (*Spell, error) {
	d := NewDispatcher(opts...)
	if err := doctree.Walk(doc, d.Walk); err != nil {
		return nil, err
	}
	if d.State() < AwaitContent {
		return nil, &IncompleteError{State: d.State()}
	}
	return d.Spell(), nil
}
