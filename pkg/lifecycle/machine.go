// Package lifecycle is a small table-driven state machine. A Machine lists the
// permitted edges between states; each edge names the roles allowed to take it
// and an opaque effect tag the caller acts on after the edge is accepted.
package lifecycle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRoleNotAllowed    = errors.New("role not allowed for transition")
	ErrUnknownState      = errors.New("unknown state")
)

// Effect tags the side effect the owner of a machine must apply for an edge.
type Effect string

const NoEffect Effect = ""

type Edge[S ~string] struct {
	From   S
	To     S
	Roles  []actor.Role
	Effect Effect
}

func (e Edge[S]) Allows(r actor.Role) bool {
	return slices.Contains(e.Roles, r)
}

type Machine[S ~string] struct {
	name  string
	edges []Edge[S]
	index map[S]map[S]int
}

// New panics on an edge that references an undeclared state or repeats a pair;
// machines are package-level tables, so this fails at init time.
func New[S ~string](name string, states []S, edges ...Edge[S]) *Machine[S] {
	m := &Machine[S]{
		name:  name,
		edges: make([]Edge[S], 0, len(edges)),
		index: make(map[S]map[S]int, len(states)),
	}
	for _, s := range states {
		m.index[s] = map[S]int{}
	}
	for _, e := range edges {
		out, ok := m.index[e.From]
		if !ok {
			panic(fmt.Sprintf("lifecycle %s: edge from undeclared state %q", name, e.From))
		}
		if _, ok := m.index[e.To]; !ok {
			panic(fmt.Sprintf("lifecycle %s: edge to undeclared state %q", name, e.To))
		}
		if _, dup := out[e.To]; dup {
			panic(fmt.Sprintf("lifecycle %s: duplicate edge %s -> %s", name, e.From, e.To))
		}
		e.Roles = slices.Clone(e.Roles)
		out[e.To] = len(m.edges)
		m.edges = append(m.edges, e)
	}
	return m
}

func (m *Machine[S]) Name() string { return m.name }

func (m *Machine[S]) Valid(s S) bool {
	_, ok := m.index[s]
	return ok
}

// Terminal reports whether s is a known state with no outgoing edges.
func (m *Machine[S]) Terminal(s S) bool {
	out, ok := m.index[s]
	return ok && len(out) == 0
}

// NextFor lists the targets role may reach from a state, in table order.
func (m *Machine[S]) NextFor(role actor.Role, from S) []S {
	var out []S
	for _, e := range m.edges {
		if e.From == from && e.Allows(role) {
			out = append(out, e.To)
		}
	}
	return out
}

func (m *Machine[S]) Lookup(from, to S) (Edge[S], bool) {
	out, ok := m.index[from]
	if !ok {
		return Edge[S]{}, false
	}
	i, ok := out[to]
	if !ok {
		return Edge[S]{}, false
	}
	return m.edges[i], true
}

// Check validates one requested move. A missing edge is ErrInvalidTransition; an
// edge that exists but excludes the role is ErrRoleNotAllowed.
func (m *Machine[S]) Check(role actor.Role, from, to S) (Edge[S], error) {
	if !m.Valid(from) {
		return Edge[S]{}, fmt.Errorf("%w: %s state %q", ErrUnknownState, m.name, from)
	}
	if !m.Valid(to) {
		return Edge[S]{}, fmt.Errorf("%w: %s state %q", ErrUnknownState, m.name, to)
	}
	e, ok := m.Lookup(from, to)
	if !ok {
		return Edge[S]{}, fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidTransition, m.name, from, to)
	}
	if !e.Allows(role) {
		return Edge[S]{}, fmt.Errorf("%w: %s may not move %s from %s to %s", ErrRoleNotAllowed, role, m.name, from, to)
	}
	return e, nil
}
