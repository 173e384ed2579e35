package shell

import (
	"embed"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

//go:embed helptext/*.txt
var helptext embed.FS

// readHelp prefers a helptext directory next to the executable so the
// text can be edited without a rebuild.
func readHelp(execPath, name string) ([]byte, error) {
	if execPath != "" {
		if dat, err := os.ReadFile(filepath.Join(execPath, "shell", "helptext", name+".txt")); err == nil {
			return dat, nil
		}
	}
	return helptext.ReadFile("helptext/" + name + ".txt")
}

func usage(w io.Writer, execPath string) {
	dat, err := readHelp(execPath, "usage")
	if err != nil {
		io.WriteString(w, "Error loading helptext: "+err.Error())
		return
	}
	w.Write(dat)
}

func usageTopic(w io.Writer, topic, execPath string) {
	dat, err := readHelp(execPath, topic)
	if err != nil {
		io.WriteString(w, "There is no help text for the topic "+topic+"\n")
		return
	}
	w.Write(dat)
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb, sc.execPath)
		if sc.gitVersion != "" {
			sb.WriteString("\nversion " + sc.gitVersion + "\n")
		}
		return msg(strings.TrimRight(sb.String(), "\n")), nil
	}
	if strings.ContainsAny(cmd.args[0], `/\.`) {
		return nil, errors.New("bad help topic")
	}
	usageTopic(&sb, cmd.args[0], sc.execPath)
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}
