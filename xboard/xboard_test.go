package xboard

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/engine"
	"github.com/theHamdiz/kishmat/protocol"
)

const mateInOne = "6k1/5ppp/8/8/8/8/8/R6K w - - 0 1"

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newAdapter(t *testing.T, transcript string) (*Adapter, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTMegabytes, 1)
	cfg.Set(config.ConfigSearchDepth, 2)
	e, err := engine.New(cfg)
	require.NoError(t, err)
	var out bytes.Buffer
	return New(e, strings.NewReader(transcript), &out), &out
}

func run(t *testing.T, transcript string) []string {
	t.Helper()
	a, out := newAdapter(t, transcript)
	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, protocol.Done, a.State())
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestHandshake(t *testing.T) {
	lines := run(t, "xboard\nprotover 2\naccepted setboard\nping 7\nquit\n")
	assert.Equal(t, []string{Features, "pong 7"}, lines)
}

func TestGoFindsMate(t *testing.T) {
	lines := run(t, "new\nforce\nsetboard "+mateInOne+"\nsd 2\npost\ngo\nquit\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "2 100001 "), lines[0])
	assert.Equal(t, "move a1a8", lines[1])
	assert.Equal(t, "1-0 {White mates}", lines[2])
}

func TestEngineAnswersUserMove(t *testing.T) {
	a, out := newAdapter(t, "")
	ctx := context.Background()
	assert.Empty(t, a.Handle(ctx, "new"))
	assert.Empty(t, a.Handle(ctx, "sd 1"))
	lines := a.Handle(ctx, "usermove e2e4")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "move "), lines[0])
	assert.Equal(t, 2, a.Position().Ply())
	assert.Equal(t, board.White, a.Position().SideToMove())
	assert.Empty(t, out.String())
}

func TestForceModeOnlyRecordsMoves(t *testing.T) {
	a, _ := newAdapter(t, "")
	ctx := context.Background()
	assert.Empty(t, a.Handle(ctx, "force"))
	assert.Empty(t, a.Handle(ctx, "usermove e2e4"))
	assert.Empty(t, a.Handle(ctx, "usermove e7e5"))
	assert.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2", a.Position().FEN())

	assert.Empty(t, a.Handle(ctx, "undo"))
	assert.Equal(t, board.Black, a.Position().SideToMove())
	assert.Empty(t, a.Handle(ctx, "usermove e7e5"))
	assert.Empty(t, a.Handle(ctx, "remove"))
	assert.Equal(t, board.StartingFEN, a.Position().FEN())
	assert.Equal(t, []string{"Error (nothing to undo): undo"}, a.Handle(ctx, "undo"))
}

func TestPlayOtherWaitsForUser(t *testing.T) {
	a, _ := newAdapter(t, "")
	ctx := context.Background()
	assert.Empty(t, a.Handle(ctx, "force"))
	assert.Empty(t, a.Handle(ctx, "setboard "+mateInOne))
	// the engine takes black; white is the user's to move.
	assert.Empty(t, a.Handle(ctx, "playother"))
	assert.Equal(t, []string{"1-0 {White mates}"}, a.Handle(ctx, "usermove a1a8"))
	assert.Equal(t, []string{"Illegal move (game is over): g8h8"}, a.Handle(ctx, "usermove g8h8"))
}

func TestBadInputNeverPanics(t *testing.T) {
	lines := run(t, strings.Join([]string{
		"usermove e2e5",
		"usermove",
		"setboard not/a/fen w - - 0 1",
		"setboard k7/8/8/8/8/8/8/R6K w - - 0 1",
		"sd zero",
		"ping",
		"frobnicate now",
		"",
		"quit",
	}, "\n"))
	assert.Equal(t, []string{
		"Illegal move: e2e5",
		"Error (missing move): usermove",
		"tellusererror Illegal position",
		"Error (illegal position): setboard not/a/fen w - - 0 1",
		"tellusererror Illegal position",
		"Error (illegal position): setboard k7/8/8/8/8/8/8/R6K w - - 0 1",
		"Error (bad depth): sd zero",
		"Error (missing number): ping",
		"Error (unknown command): frobnicate",
	}, lines)
}

func TestStalemateResult(t *testing.T) {
	a, _ := newAdapter(t, "")
	ctx := context.Background()
	assert.Empty(t, a.Handle(ctx, "force"))
	assert.Empty(t, a.Handle(ctx, "setboard 7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"))
	assert.Equal(t, []string{"1/2-1/2 {Stalemate}"}, a.Handle(ctx, "go"))
}

func TestPostScore(t *testing.T) {
	assert.Equal(t, 35, postScore(35))
	assert.Equal(t, -120, postScore(-120))
}
