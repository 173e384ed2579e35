// Package protocol runs a line-based engine protocol over a pair of
// streams. The machine waits for a line, hands it to a Handler, then
// writes out whatever the handler produced.
package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

type State uint8

const (
	AwaitingInput State = iota
	Processing
	Responding
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting-input"
	case Processing:
		return "processing"
	case Responding:
		return "responding"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", s)
}

// Handler answers one input line. Finished reports whether the last line
// ended the session.
type Handler interface {
	Handle(ctx context.Context, line string) []string
	Finished() bool
}

type Machine struct {
	name string
	h    Handler
	in   *bufio.Scanner
	out  io.Writer

	state   State
	line    string
	replies []string
}

// NewMachine reads from r and writes to w. name only labels log lines.
func NewMachine(name string, h Handler, r io.Reader, w io.Writer) *Machine {
	return &Machine{name: name, h: h, in: bufio.NewScanner(r), out: w}
}

func (m *Machine) State() State { return m.state }

// Step advances the machine by one state. It returns false once the
// session is over, either because the handler finished or at the end of
// input.
func (m *Machine) Step(ctx context.Context) bool {
	switch m.state {
	case AwaitingInput:
		if !m.in.Scan() {
			if err := m.in.Err(); err != nil {
				log.Err(err).Str("protocol", m.name).Msg("protocol-read")
			}
			m.state = Done
			return false
		}
		m.line = m.in.Text()
		m.state = Processing
	case Processing:
		m.replies = m.h.Handle(ctx, m.line)
		m.state = Responding
	case Responding:
		for _, r := range m.replies {
			fmt.Fprintln(m.out, r)
		}
		m.replies = nil
		if m.h.Finished() {
			m.state = Done
			return false
		}
		m.state = AwaitingInput
	case Done:
		return false
	}
	return true
}

// Run steps until the handler finishes or input ends.
func (m *Machine) Run(ctx context.Context) error {
	for m.Step(ctx) {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
