// Package uci speaks the Universal Chess Interface over a pair of streams.
package uci

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/engine"
	"github.com/theHamdiz/kishmat/protocol"
	"github.com/theHamdiz/kishmat/search"
)

const (
	EngineName   = "kishmat"
	EngineAuthor = "the kishmat authors"
)

var errMalformed = errors.New("malformed command")

type Adapter struct {
	*protocol.Machine
	engine *engine.Engine

	pos  *board.Position
	quit bool
}

func New(e *engine.Engine, r io.Reader, w io.Writer) *Adapter {
	a := &Adapter{engine: e, pos: board.StartingPosition()}
	a.Machine = protocol.NewMachine("uci", a, r, w)
	return a
}

// Position is the position the next "go" searches.
func (a *Adapter) Position() *board.Position { return a.pos }

// Finished reports whether "quit" has been seen.
func (a *Adapter) Finished() bool { return a.quit }

func errorLine(err error) string {
	return "info string error " + err.Error()
}

// Handle runs one command line and returns the lines to send back. Bad
// input never panics; it comes back as an "info string error" line.
func (a *Adapter) Handle(ctx context.Context, line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "uci":
		return []string{"id name " + EngineName, "id author " + EngineAuthor, "uciok"}
	case "isready":
		return []string{"readyok"}
	case "ucinewgame":
		a.pos = board.StartingPosition()
		a.engine.NewGame()
		return nil
	case "position":
		pos, err := parsePosition(fields[1:])
		if err != nil {
			return []string{errorLine(err)}
		}
		a.pos = pos
		return nil
	case "go":
		return a.goCmd(ctx, fields[1:])
	case "eval":
		score := a.engine.EvaluatePosition(a.pos, a.pos.SideToMove())
		return []string{fmt.Sprintf("info string eval %d", score)}
	case "d":
		lines := strings.Split(strings.TrimRight(a.pos.String(), "\n"), "\n")
		return append(lines, "Fen: "+a.pos.FEN(), fmt.Sprintf("Key: %016x", engine.Hash(a.pos)))
	case "stop":
		// searches are synchronous; there is never one to stop.
		return nil
	case "quit":
		a.quit = true
		return nil
	}
	log.Warn().Str("line", line).Msg("unknown-uci-command")
	return nil
}

func parsePosition(args []string) (*board.Position, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: position needs startpos or fen", errMalformed)
	}
	var pos *board.Position
	rest := args[1:]
	switch strings.ToLower(args[0]) {
	case "startpos":
		pos = board.StartingPosition()
	case "fen":
		end := len(rest)
		for i, f := range rest {
			if f == "moves" {
				end = i
				break
			}
		}
		var err error
		pos, err = board.FromFEN(strings.Join(rest[:end], " "))
		if err != nil {
			return nil, err
		}
		rest = rest[end:]
	default:
		return nil, fmt.Errorf("%w: unknown position subcommand %q", errMalformed, args[0])
	}
	if len(rest) == 0 {
		return pos, nil
	}
	if rest[0] != "moves" {
		return nil, fmt.Errorf("%w: expected moves, got %q", errMalformed, rest[0])
	}
	for _, tok := range rest[1:] {
		m, err := pos.ParseUCIMove(tok)
		if err != nil {
			return nil, err
		}
		if err := pos.MakeMove(m); err != nil {
			return nil, err
		}
	}
	return pos, nil
}

func scoreText(score int) string {
	if n := search.MateIn(score); n != 0 {
		return fmt.Sprintf("mate %d", n)
	}
	return fmt.Sprintf("cp %d", score)
}

func (a *Adapter) goCmd(ctx context.Context, args []string) []string {
	depth := 0
	var out []string
	for i := 0; i < len(args); i++ {
		switch strings.ToLower(args[i]) {
		case "depth":
			if i+1 >= len(args) {
				return []string{errorLine(fmt.Errorf("%w: depth needs a value", errMalformed))}
			}
			d, err := strconv.Atoi(args[i+1])
			if err != nil || d < 1 {
				return []string{errorLine(fmt.Errorf("%w: bad depth %q", errMalformed, args[i+1]))}
			}
			depth = d
			i++
		case "wtime", "btime", "winc", "binc", "movestogo", "movetime", "nodes", "mate":
			// the search is depth-bounded only.
			i++
		case "infinite", "ponder":
		default:
			out = append(out, "info string unknown go option "+args[i])
		}
	}

	res, err := a.engine.Analyze(ctx, a.pos.Copy(), depth)
	if err != nil {
		if res.Move.IsNull() {
			return append(out, errorLine(err), "bestmove 0000")
		}
		out = append(out, errorLine(err))
	}
	if res.Source == engine.SourceBook {
		out = append(out, "info string book move")
	} else {
		out = append(out, fmt.Sprintf("info depth %d score %s nodes %d time %d pv %s",
			res.Depth, scoreText(res.Score), res.Nodes, res.Elapsed.Milliseconds(), res.PV.String()))
	}
	return append(out, "bestmove "+res.Move.String())
}
