package protocol

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matryer/is"
)

type echo struct{ done bool }

func (e *echo) Handle(_ context.Context, line string) []string {
	if line == "bye" {
		e.done = true
		return []string{"ok bye"}
	}
	if line == "" {
		return nil
	}
	return []string{"got " + line}
}

func (e *echo) Finished() bool { return e.done }

func TestRunUntilFinished(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	m := NewMachine("echo", &echo{}, strings.NewReader("a\n\nb\nbye\nnever\n"), &out)
	is.NoErr(m.Run(context.Background()))
	is.Equal(m.State(), Done)
	// the reply to the last line still goes out, nothing after it is read.
	is.Equal(out.String(), "got a\ngot b\nok bye\n")
}

func TestRunUntilEndOfInput(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	m := NewMachine("echo", &echo{}, strings.NewReader("a"), &out)
	is.NoErr(m.Run(context.Background()))
	is.Equal(m.State(), Done)
	is.Equal(out.String(), "got a\n")
	is.True(!m.Step(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMachine("echo", &echo{}, strings.NewReader("a\nb\n"), &bytes.Buffer{})
	is.Equal(m.Run(ctx), context.Canceled)
}

func TestStateNames(t *testing.T) {
	is := is.New(t)
	is.Equal(AwaitingInput.String(), "awaiting-input")
	is.Equal(Done.String(), "done")
	is.Equal(State(9).String(), "state(9)")
}
