package widget

import (
	"fmt"

	"golang.org/x/net/html"
)

// MountState tracks a mount point through one scan.
type MountState string

const (
	StateUnscanned MountState = "unscanned"
	StatePending   MountState = "pending"
	StateRendered  MountState = "rendered"
	StateErrored   MountState = "errored"
)

// Terminal reports whether no further transition is possible.
func (s MountState) Terminal() bool {
	return s == StateRendered || s == StateErrored
}

var transitions = map[MountState][]MountState{
	StateUnscanned: {StatePending},
	StatePending:   {StateRendered, StateErrored},
}

// Mount is one claimed mount point.
type Mount struct {
	ID     string
	Config MountConfig
	State  MountState
	Err    error

	node *html.Node
}

func newMount(node *html.Node) *Mount {
	return &Mount{State: StateUnscanned, node: node}
}

func (m *Mount) transition(to MountState) error {
	for _, next := range transitions[m.State] {
		if next == to {
			m.State = to
			if m.node != nil {
				setAttr(m.node, AttrState, string(to))
			}
			return nil
		}
	}
	return fmt.Errorf("mount %s: illegal transition %s -> %s", m.ID, m.State, to)
}
