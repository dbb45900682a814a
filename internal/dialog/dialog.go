// Package dialog tracks the single modal context of the dashboard.
package dialog

import (
	"errors"
	"fmt"
	"sync"

	"txdash/internal/core"
)

var ErrInvalidTransition = errors.New("invalid dialog transition")

type Kind int

const (
	Closed Kind = iota
	Add
	Edit
	View
)

func (k Kind) String() string {
	switch k {
	case Closed:
		return "closed"
	case Add:
		return "add"
	case Edit:
		return "edit"
	case View:
		return "view"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is the active variant. Payload is set for Edit and View only and is
// a snapshot taken when the dialog opened.
type State struct {
	Kind    Kind
	Payload *core.Transaction
}

func (s State) Open() bool { return s.Kind != Closed }

func (s State) String() string {
	if s.Payload != nil {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Payload.ID)
	}
	return s.Kind.String()
}

// Observer is notified of every transition, after it happened.
type Observer func(from, to State)

// Machine enforces that at most one dialog is open. Opening a dialog while
// another is open closes the current one first, so observers never see a
// direct open-to-open transition.
type Machine struct {
	mu        sync.Mutex
	state     State
	observers []Observer
}

func New() *Machine {
	return &Machine{}
}

// OnTransition registers an observer. Observers run synchronously and must
// not call back into the machine.
func (m *Machine) OnTransition(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	if st.Payload != nil {
		p := *st.Payload
		st.Payload = &p
	}
	return st
}

func (m *Machine) OpenAdd() {
	m.open(State{Kind: Add})
}

func (m *Machine) OpenEdit(tx core.Transaction) {
	m.open(State{Kind: Edit, Payload: &tx})
}

func (m *Machine) OpenView(tx core.Transaction) {
	m.open(State{Kind: View, Payload: &tx})
}

// Cancel closes an Add or Edit dialog.
func (m *Machine) Cancel() error {
	return m.closeFrom("cancel", Add, Edit)
}

// Close closes a View dialog.
func (m *Machine) Close() error {
	return m.closeFrom("close", View)
}

// Complete closes an Add or Edit dialog after a confirmed save. It is a
// no-op when nothing is open, so headless callers can share the pipeline.
func (m *Machine) Complete() error {
	return m.closeFrom("complete", Closed, Add, Edit)
}

func (m *Machine) open(next State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Open() {
		m.set(State{Kind: Closed})
	}
	m.set(next)
}

func (m *Machine) closeFrom(trigger string, allowed ...Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range allowed {
		if m.state.Kind == k {
			if k != Closed {
				m.set(State{Kind: Closed})
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.state.Kind)
}

// set performs a transition. Callers hold m.mu.
func (m *Machine) set(next State) {
	prev := m.state
	m.state = next
	for _, fn := range m.observers {
		fn(prev, next)
	}
}
