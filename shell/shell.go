// Package shell is kishmat's interactive front end: a readline loop over a
// table of commands that drive the engine on one current position.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/bot"
	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/engine"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// extractFields splits a line into the command, its positional arguments
// and its -key value options. Quoting follows the shell.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: CmdOptions{}}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if len(f) > 1 && f[0] == '-' && !isNumber(f) {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := strings.TrimLeft(f, "-")
			cmd.options[key] = append(cmd.options[key], fields[i+1])
			i++
			continue
		}
		cmd.args = append(cmd.args, f)
	}
	return cmd, nil
}

type ShellController struct {
	l          *readline.Instance
	out        io.Writer
	config     *config.Config
	execPath   string
	gitVersion string

	options *ShellOptions
	engine  *engine.Engine
	pos     *board.Position

	searchCancel context.CancelFunc

	nc        *nats.Conn
	remoteBot *bot.Client
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// newController builds everything but the terminal.
func newController(cfg *config.Config, execPath, gitVersion string, out io.Writer) (*ShellController, error) {
	e, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	return &ShellController{
		out:        out,
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
		options:    NewShellOptions(cfg),
		engine:     e,
		pos:        board.StartingPosition(),
	}, nil
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) (*ShellController, error) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mkishmat>\033[0m ",
		HistoryFile:     cfg.HistoryFile(),
		AutoComplete:    completer(),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc, err := newController(cfg, execPath, gitVersion, l.Stderr())
	if err != nil {
		l.Close()
		return nil, err
	}
	sc.l = l
	return sc, nil
}

type handler func(sc *ShellController, cmd *shellcmd) (*Response, error)

var commands map[string]handler

func init() {
	commands = map[string]handler{
		"new":      (*ShellController).newGame,
		"fen":      (*ShellController).fen,
		"moves":    (*ShellController).moves,
		"play":     (*ShellController).play,
		"undo":     (*ShellController).undo,
		"show":     (*ShellController).show,
		"eval":     (*ShellController).eval,
		"search":   (*ShellController).search,
		"classify": (*ShellController).classify,
		"book":     (*ShellController).book,
		"hash":     (*ShellController).hash,
		"perft":    (*ShellController).perft,
		"divide":   (*ShellController).divide,
		"legal":    (*ShellController).legal,
		"set":      (*ShellController).set,
		"setting":  (*ShellController).setting,
		"script":   (*ShellController).script,
		"batch":    (*ShellController).batch,
		"bench":    (*ShellController).bench,
		"remote":   (*ShellController).remote,
		"help":     (*ShellController).help,
	}
}

// commandNames lists every command, exit included, sorted.
func commandNames() []string {
	names := append(lo.Keys(commands), "exit")
	slices.Sort(names)
	return names
}

func completer() *readline.PrefixCompleter {
	items := lo.Map(commandNames(), func(name string, _ int) readline.PrefixCompleterInterface {
		return readline.PcItem(name)
	})
	return readline.NewPrefixCompleter(items...)
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	h, ok := commands[cmd.cmd]
	if !ok {
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
	return h(sc, cmd)
}

// Execute runs one line. The line may hold several commands separated by
// semicolons.
func (sc *ShellController) Execute(line string) {
	for _, part := range strings.Split(line, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cmd, err := extractFields(part)
		if err != nil {
			sc.showError(err)
			continue
		}
		resp, err := sc.dispatch(cmd)
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
}

// searchContext gives a long-running command a context that Cleanup can
// cancel on shutdown.
func (sc *ShellController) searchContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sc.searchCancel = cancel
	return ctx, func() {
		cancel()
		sc.searchCancel = nil
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	sc.showMessage(sc.pos.String())
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" {
			sig <- syscall.SIGINT
			break
		}
		sc.Execute(line)
	}
	log.Debug().Msgf("Exiting readline loop...")
}

func (sc *ShellController) Cleanup() {
	if sc.searchCancel != nil {
		sc.searchCancel()
	}
	if sc.nc != nil {
		sc.nc.Close()
	}
	log.Info().Msg("shell-cleanup")
}
