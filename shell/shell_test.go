package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/config"
)

const mateInOne = "6k1/5ppp/8/8/8/8/8/R6K w - - 0 1"

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"search 4 -variant lmr",
			&shellcmd{"search", []string{"4"}, CmdOptions{"variant": {"lmr"}}},
			nil},
		{"fen 8/8/8/8/8/8/8/K6k w - - 0 1",
			&shellcmd{"fen", []string{"8/8/8/8/8/8/8/K6k", "w", "-", "-", "0", "1"}, CmdOptions{}},
			nil},
		{"batch 'my file.yaml' -workers 2 -workers 3",
			&shellcmd{"batch", []string{"my file.yaml"}, CmdOptions{"workers": {"2", "3"}}},
			nil},
		{"undo -2",
			&shellcmd{"undo", []string{"-2"}, CmdOptions{}},
			nil},
		{"search 4 -variant",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func newTestController(t *testing.T) (*ShellController, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTMegabytes, 1)
	out := &bytes.Buffer{}
	sc, err := newController(cfg, "", "", out)
	if err != nil {
		t.Fatal(err)
	}
	return sc, out
}

func run(t *testing.T, sc *ShellController, line string) (string, error) {
	t.Helper()
	cmd, err := extractFields(line)
	if err != nil {
		t.Fatal(err)
	}
	r, err := sc.dispatch(cmd)
	if r == nil {
		return "", err
	}
	return r.message, err
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)

	_, err := run(t, sc, "play e2e4 e5 Nf3")
	is.NoErr(err)
	want, err := board.FromMoveText("1. e4 e5 2. Nf3")
	is.NoErr(err)
	is.Equal(sc.pos.FEN(), want.FEN())

	_, err = run(t, sc, "undo 2")
	is.NoErr(err)
	want, _ = board.FromMoveText("1. e4")
	is.Equal(sc.pos.FEN(), want.FEN())

	_, err = run(t, sc, "undo 5")
	is.True(err != nil)
}

func TestPlayIsAllOrNothing(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	start := sc.pos.FEN()
	_, err := run(t, sc, "play e4 Ke3")
	is.True(err != nil)
	is.Equal(sc.pos.FEN(), start)
}

func TestFenAndMoves(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)

	out, err := run(t, sc, "fen "+mateInOne)
	is.NoErr(err)
	is.True(strings.Contains(out, "FEN: "+mateInOne))

	out, err = run(t, sc, "fen")
	is.NoErr(err)
	is.Equal(out, mateInOne)

	_, err = run(t, sc, "fen not a fen")
	is.True(err != nil)
	is.Equal(sc.pos.FEN(), mateInOne)

	_, err = run(t, sc, "moves 1. d4 d5")
	is.NoErr(err)
	is.Equal(sc.pos.Ply(), 2)

	_, err = run(t, sc, "new")
	is.NoErr(err)
	is.Equal(sc.pos.FEN(), board.StartingPosition().FEN())
}

func TestSearchCommand(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	_, err := run(t, sc, "fen "+mateInOne)
	is.NoErr(err)

	out, err := run(t, sc, "search 3 -variant negamax")
	is.NoErr(err)
	is.True(strings.Contains(out, "best move: Ra8# (a1a8)"))
	is.True(strings.Contains(out, "mate in 1"))

	out, err = run(t, sc, "search 2 -histogram true")
	is.NoErr(err)
	is.True(strings.Contains(out, "a1a8"))
	is.True(strings.Contains(out, "root move scores"))

	out, err = run(t, sc, "search 2 -variant id -verbose true")
	is.NoErr(err)
	is.True(strings.Contains(out, "search trace:"))
	is.True(strings.Contains(out, "depth 1 score"))
	is.True(strings.Contains(out, "depth 2 score"))
	is.True(strings.Contains(out, "  a1a8: "))

	// the trace is off again afterwards.
	out, err = run(t, sc, "search 2 -variant id")
	is.NoErr(err)
	is.True(!strings.Contains(out, "search trace:"))

	_, err = run(t, sc, "search 2 -play true")
	is.NoErr(err)
	is.True(sc.pos.IsCheckmate())

	_, err = run(t, sc, "search 2")
	is.True(err != nil)

	_, err = run(t, sc, "search 0")
	is.True(err != nil)
	_, err = run(t, sc, "search 2 -variant bogus")
	is.True(err != nil)
}

func TestPerftAndDivide(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)

	out, err := run(t, sc, "perft 3")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "perft(3) = 8902 "))

	out, err = run(t, sc, "divide 2 -threads 2")
	is.NoErr(err)
	lines := strings.Split(out, "\n")
	is.Equal(len(lines), 21)
	is.Equal(lines[20], "total: 400")
	is.True(strings.Contains(out, "e2e4: 20"))

	_, err = run(t, sc, "perft")
	is.True(err != nil)
}

func TestLegalEvalClassifyHash(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)

	out, err := run(t, sc, "legal")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "20 legal moves: "))
	is.True(strings.Contains(out, "Nf3"))

	out, err = run(t, sc, "eval -variant endgame")
	is.NoErr(err)
	is.True(strings.Contains(out, "material"))
	is.True(strings.Contains(out, "endgame evaluation: 0 for white"))

	_, err = run(t, sc, "eval -variant nope")
	is.True(err != nil)

	out, err = run(t, sc, "classify")
	is.NoErr(err)
	is.True(strings.HasPrefix(out, "category: semi-closed"))

	out, err = run(t, sc, "hash")
	is.NoErr(err)
	is.Equal(len(out), 16)
}

func TestSetOptions(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)

	out, err := run(t, sc, "set variant negamax")
	is.NoErr(err)
	is.Equal(out, "set variant to negamax")
	is.Equal(sc.options.variant, "negamax")

	_, err = run(t, sc, "set depth 0")
	is.True(err != nil)

	_, err = run(t, sc, "set lmr false")
	is.NoErr(err)
	is.Equal(sc.config.GetBool(config.ConfigLMR), false)

	out, err = run(t, sc, "set san false")
	is.NoErr(err)
	is.Equal(out, "set san to false")
	out, _ = run(t, sc, "legal")
	is.True(strings.Contains(out, "g1f3"))

	out, err = run(t, sc, "set")
	is.NoErr(err)
	is.True(strings.Contains(out, "variant: negamax"))
}

func TestSettingWithoutFile(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)

	out, err := run(t, sc, "setting search-depth 3")
	is.NoErr(err)
	is.True(strings.Contains(out, "not saved"))
	is.Equal(sc.engine.DefaultDepth(), 3)

	out, err = run(t, sc, "setting search-depth")
	is.NoErr(err)
	is.Equal(out, "3")
}

func TestExecuteSplitsCommands(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)
	sc.Execute("play e4; play e5; bogus")
	is.Equal(sc.pos.Ply(), 2)
	is.True(strings.Contains(out.String(), `Error: command "bogus" not found`))
}

func TestScript(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.lua")
	src := `
kishmat_fen(arg[1])
local legal = kishmat_legal("")
if not string.find(legal, "3 legal moves") then
	error("unexpected: " .. legal)
end
local bad = kishmat_play("e2e4")
if string.sub(bad, 1, 6) ~= "ERROR:" then
	error("expected an error, got " .. bad)
end
local json = require("json")
local decoded = json.decode(json.encode({depth = 2}))
kishmat_set("depth " .. decoded.depth)
`
	is.NoErr(os.WriteFile(path, []byte(src), 0o644))

	_, err := run(t, sc, "script "+path+" '8/8/8/8/8/8/8/K6k w - - 0 1'")
	is.NoErr(err)
	is.Equal(sc.pos.FEN(), "8/8/8/8/8/8/8/K6k w - - 0 1")
	is.Equal(sc.config.GetInt(config.ConfigSearchDepth), 2)

	_, err = run(t, sc, "script "+filepath.Join(dir, "missing.lua"))
	is.True(err != nil)
}

func TestBatch(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	path := filepath.Join(t.TempDir(), "batch.yaml")
	is.NoErr(os.WriteFile(path, []byte(`
depth: 2
positions:
  - name: mate
    fen: "`+mateInOne+`"
  - name: italian
    moves: 1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5
  - name: mated
    fen: "R5k1/5ppp/8/8/8/8/8/7K b - - 0 1"
`), 0o644))

	out, err := run(t, sc, "batch "+path+" -workers 2")
	is.NoErr(err)
	lines := strings.Split(out, "\n")
	is.True(strings.HasPrefix(lines[1], "mate"))
	is.True(strings.Contains(lines[1], "Ra8#"))
	is.True(strings.HasPrefix(lines[2], "italian"))
	is.True(strings.Contains(lines[3], "error"))
	is.True(strings.Contains(out, "finished 3 positions"))
}

func TestParseBatchFile(t *testing.T) {
	is := is.New(t)
	_, err := ParseBatchFile([]byte("depth: 3\n"))
	is.True(err != nil)

	bf, err := ParseBatchFile([]byte("positions:\n  - fen: \"" + mateInOne + "\"\n    moves: 1. e4\n"))
	is.NoErr(err)
	is.Equal(bf.Positions[0].Name, "#1")
	_, err = bf.Positions[0].position()
	is.True(err != nil)
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)

	out, err := run(t, sc, "help")
	is.NoErr(err)
	for _, name := range commandNames() {
		is.True(strings.Contains(out, name))
	}

	out, err = run(t, sc, "help search")
	is.NoErr(err)
	is.True(strings.Contains(out, "-histogram"))

	out, err = run(t, sc, "help nosuchtopic")
	is.NoErr(err)
	is.True(strings.Contains(out, "no help text"))

	_, err = run(t, sc, "help ../shell")
	is.True(err != nil)
}
