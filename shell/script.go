package shell

import (
	"errors"
	"net/http"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

// scriptCommands are the shell commands exposed to lua as kishmat_<name>.
var scriptCommands = []string{
	"new", "fen", "moves", "play", "undo", "show", "eval", "search",
	"classify", "legal", "hash", "perft", "set", "setting",
}

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("kishmat_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// luaCommand wraps one shell command. The lua function takes the rest of
// the command line as a string and returns the command's output, or a
// string starting with "ERROR: ".
func luaCommand(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		line := name
		if L.GetTop() > 0 {
			line += " " + L.ToString(1)
		}
		sc := getShell(L)
		cmd, err := extractFields(line)
		if err != nil {
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		r, err := sc.dispatch(cmd)
		if err != nil {
			log.Err(err).Str("cmd", name).Msg("error-executing-script-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		if r == nil {
			L.Push(lua.LString(""))
		} else {
			L.Push(lua.LString(r.message))
		}
		// return number of results pushed to stack.
		return 1
	}
}

func (sc *ShellController) newLuaState(args []string) *lua.LState {
	L := lua.NewState()
	lsc := L.NewUserData()
	lsc.Value = sc
	L.SetGlobal("kishmat_shell", lsc)
	for _, name := range scriptCommands {
		L.SetGlobal("kishmat_"+name, L.NewFunction(luaCommand(name)))
	}
	argt := L.NewTable()
	for _, a := range args {
		argt.Append(lua.LString(a))
	}
	L.SetGlobal("arg", argt)

	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)
	return L
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}
	L := sc.newLuaState(cmd.args[1:])
	defer L.Close()

	if err := L.DoFile(cmd.args[0]); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
