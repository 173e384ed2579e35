// Package xboard speaks the Chess Engine Communication Protocol used by
// XBoard and WinBoard. Moves go both ways in coordinate notation.
package xboard

import (
	"context"
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

const EngineName = "kishmat"

// Features is the reply to "protover 2".
var Features = fmt.Sprintf(`feature myname="%s" setboard=1 usermove=1 ping=1 playother=1 san=0 colors=0 analyze=0 sigint=0 sigterm=0 done=1`, EngineName)

type Adapter struct {
	*protocol.Machine
	engine *engine.Engine

	pos *board.Position
	// engineSide is the side the engine plays; force mode means neither.
	engineSide board.Color
	force      bool
	depth      int
	post       bool
	quit       bool
}

func New(e *engine.Engine, r io.Reader, w io.Writer) *Adapter {
	a := &Adapter{engine: e, pos: board.StartingPosition(), engineSide: board.Black}
	a.Machine = protocol.NewMachine("xboard", a, r, w)
	return a
}

func (a *Adapter) Position() *board.Position { return a.pos }

// Finished reports whether "quit" has been seen.
func (a *Adapter) Finished() bool { return a.quit }

func errorLine(reason, command string) string {
	return fmt.Sprintf("Error (%s): %s", reason, command)
}

// Handle runs one command and returns the lines to send back. Bad input
// comes back as an "Error" or "Illegal move" line, never a panic.
func (a *Adapter) Handle(ctx context.Context, line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "xboard", "accepted", "rejected", "random", "hard", "easy", "computer",
		"level", "st", "time", "otim", "?", "draw", "name", "rating", "ics", "white", "black":
		return nil
	case "protover":
		return []string{Features}
	case "new":
		a.pos = board.StartingPosition()
		a.engine.NewGame()
		a.engineSide = board.Black
		a.force = false
		a.depth = 0
		return nil
	case "force", "result":
		a.force = true
		return nil
	case "quit":
		a.quit = true
		return nil
	case "ping":
		if len(fields) < 2 {
			return []string{errorLine("missing number", line)}
		}
		return []string{"pong " + fields[1]}
	case "post":
		a.post = true
		return nil
	case "nopost":
		a.post = false
		return nil
	case "sd":
		if len(fields) < 2 {
			return []string{errorLine("missing depth", line)}
		}
		d, err := strconv.Atoi(fields[1])
		if err != nil || d < 1 || d > search.MaxDepth {
			return []string{errorLine("bad depth", line)}
		}
		a.depth = d
		return nil
	case "setboard":
		pos, err := board.FromFEN(strings.Join(fields[1:], " "))
		if err != nil {
			log.Debug().Err(err).Msg("xboard-setboard")
			return []string{"tellusererror Illegal position", errorLine("illegal position", line)}
		}
		a.pos = pos
		return nil
	case "usermove":
		if len(fields) < 2 {
			return []string{errorLine("missing move", line)}
		}
		return a.userMove(ctx, fields[1])
	case "go":
		a.force = false
		a.engineSide = a.pos.SideToMove()
		return a.think(ctx)
	case "playother":
		a.force = false
		a.engineSide = a.pos.SideToMove().Other()
		return nil
	case "undo":
		return a.takeBack(1, line)
	case "remove":
		return a.takeBack(2, line)
	}
	log.Warn().Str("line", line).Msg("unknown-xboard-command")
	return []string{errorLine("unknown command", fields[0])}
}

func (a *Adapter) takeBack(plies int, line string) []string {
	if a.pos.Ply() < plies {
		return []string{errorLine("nothing to undo", line)}
	}
	for range plies {
		a.pos.UnmakeMove()
	}
	return nil
}

func (a *Adapter) userMove(ctx context.Context, tok string) []string {
	if a.pos.IsGameOver() {
		return []string{"Illegal move (game is over): " + tok}
	}
	m, err := a.pos.ParseUCIMove(tok)
	if err != nil {
		return []string{"Illegal move: " + tok}
	}
	if err := a.pos.MakeMove(m); err != nil {
		return []string{"Illegal move: " + tok}
	}
	if r := result(a.pos); r != "" {
		return []string{r}
	}
	if a.force || a.pos.SideToMove() != a.engineSide {
		return nil
	}
	return a.think(ctx)
}

// think searches, plays the move on the board and announces it.
func (a *Adapter) think(ctx context.Context) []string {
	if r := result(a.pos); r != "" {
		return []string{r}
	}
	res, err := a.engine.Analyze(ctx, a.pos.Copy(), a.depth)
	if res.Move.IsNull() {
		return []string{errorLine(fmt.Sprint(err), "go")}
	}
	var out []string
	if err != nil {
		out = append(out, "telluser search stopped early: "+err.Error())
	}
	if a.post && res.Source != engine.SourceBook {
		out = append(out, fmt.Sprintf("%d %d %d %d %s", res.Depth, postScore(res.Score),
			res.Elapsed.Milliseconds()/10, res.Nodes, res.PV.String()))
	}
	if err := a.pos.MakeMove(res.Move); err != nil {
		return append(out, errorLine(err.Error(), "go"))
	}
	out = append(out, "move "+res.Move.String())
	if r := result(a.pos); r != "" {
		out = append(out, r)
	}
	return out
}

// postScore is the thinking-output score: centipawns, with mates as
// 100000 plus the moves to go.
func postScore(score int) int {
	switch n := search.MateIn(score); {
	case n > 0:
		return 100000 + n
	case n < 0:
		return -100000 + n
	}
	return score
}

// result is the game-end line for pos, or "" while the game goes on.
func result(pos *board.Position) string {
	switch {
	case pos.IsCheckmate():
		if pos.SideToMove() == board.White {
			return "0-1 {Black mates}"
		}
		return "1-0 {White mates}"
	case pos.IsStalemate():
		return "1/2-1/2 {Stalemate}"
	case pos.HalfmoveClock() >= 100:
		return "1/2-1/2 {50 move rule}"
	}
	return ""
}
