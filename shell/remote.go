package shell

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/theHamdiz/kishmat/bot"
	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/search"
)

// remoteClient connects to the analysis service on first use.
func (sc *ShellController) remoteClient() (*bot.Client, error) {
	if sc.remoteBot != nil {
		return sc.remoteBot, nil
	}
	url := sc.config.GetString(config.ConfigNatsURL)
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	log.Info().Str("channel", sc.config.GetString(config.ConfigBotChannel)).Msg("remote-connected")
	sc.nc = nc
	sc.remoteBot = bot.NewClient(nc, sc.config.GetString(config.ConfigBotChannel))
	return sc.remoteBot, nil
}

// remote asks the NATS analysis service about the current position.
func (sc *ShellController) remote(cmd *shellcmd) (*Response, error) {
	depth := 0
	if len(cmd.args) > 0 {
		d, err := strconv.Atoi(cmd.args[0])
		if err != nil || d < 1 || d > search.MaxDepth {
			return nil, fmt.Errorf("depth must be between 1 and %d", search.MaxDepth)
		}
		depth = d
	}
	timeout := bot.DefaultRequestTimeout
	if t := cmd.options.String("timeout"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("bad timeout %q", t)
		}
		timeout = d
	}
	c, err := sc.remoteClient()
	if err != nil {
		return nil, err
	}
	c.SetTimeout(timeout)
	resp, err := c.Analyze(bot.Request{FEN: sc.pos.FEN(), Depth: depth})
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "remote best move: %s (%s)\n", resp.SAN, resp.Move)
	fmt.Fprintf(&sb, "score: %s\n", scoreText(resp.Score))
	fmt.Fprintf(&sb, "depth %d, %d nodes, source %s, category %s\n", resp.Depth, resp.Nodes,
		resp.Source, resp.Category)
	fmt.Fprintf(&sb, "pv: %s", strings.Join(resp.PV, " "))
	if resp.Note != "" {
		fmt.Fprintf(&sb, "\nnote: %s", resp.Note)
	}
	return msg(sb.String()), nil
}
