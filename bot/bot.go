// Package bot serves analysis requests over NATS. A request names a
// position and a depth; the reply carries the engine's move.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/engine"
	"github.com/theHamdiz/kishmat/search"
)

// Request gives a position as a FEN or as SAN move text from the start.
// With neither the starting position is analyzed. Depth 0 means the
// configured default.
type Request struct {
	FEN   string `json:"fen,omitempty"`
	Moves string `json:"moves,omitempty"`
	Depth int    `json:"depth,omitempty"`
}

type Response struct {
	Move     string   `json:"move,omitempty"`
	SAN      string   `json:"san,omitempty"`
	Score    int      `json:"score"`
	MateIn   int      `json:"mate_in,omitempty"`
	PV       []string `json:"pv,omitempty"`
	Depth    int      `json:"depth,omitempty"`
	Nodes    uint64   `json:"nodes,omitempty"`
	Category string   `json:"category,omitempty"`
	Source   string   `json:"source,omitempty"`
	Error    string   `json:"error,omitempty"`
	// Note is set when the search was stopped early but still has a move.
	Note string `json:"note,omitempty"`
}

// LambdaEvent is a Request plus where to send the reply.
type LambdaEvent struct {
	Request
	RequestID    string `json:"request_id"`
	ReplyChannel string `json:"reply_channel"`
}

func (r Request) Position() (*board.Position, error) {
	switch {
	case r.FEN != "" && r.Moves != "":
		return nil, errors.New("give fen or moves, not both")
	case r.FEN != "":
		return board.FromFEN(r.FEN)
	case r.Moves != "":
		return board.FromMoveText(r.Moves)
	}
	return board.StartingPosition(), nil
}

// Bot owns one engine. Requests are served one at a time.
type Bot struct {
	config *config.Config

	mu     sync.Mutex
	engine *engine.Engine
}

func NewBot(cfg *config.Config) (*Bot, error) {
	e, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Bot{config: cfg, engine: e}, nil
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{Error: msg}
}

// Analyze runs one request through the engine.
func (bot *Bot) Analyze(ctx context.Context, req Request) *Response {
	if req.Depth < 0 || req.Depth > search.MaxDepth {
		return errorResponse("Bad depth", fmt.Errorf("%d is outside 0..%d", req.Depth, search.MaxDepth))
	}
	pos, err := req.Position()
	if err != nil {
		return errorResponse("Could not parse position", err)
	}

	bot.mu.Lock()
	a, err := bot.engine.Analyze(ctx, pos.Copy(), req.Depth)
	bot.mu.Unlock()
	var note string
	if err != nil {
		// out of time: the last finished iteration is still a real move.
		stopped := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
		if !stopped || a.Move.IsNull() {
			return errorResponse("Could not analyze position", err)
		}
		note = err.Error()
	}
	pv := make([]string, len(a.PV.Moves))
	for i, m := range a.PV.Moves {
		pv[i] = m.String()
	}
	log.Info().Str("fen", pos.FEN()).Str("move", a.Move.String()).
		Str("source", a.Source.String()).Msg("analyzed-request")
	return &Response{
		Move:     a.Move.String(),
		SAN:      pos.SAN(a.Move),
		Score:    a.Score,
		MateIn:   search.MateIn(a.Score),
		PV:       pv,
		Depth:    a.Depth,
		Nodes:    a.Nodes,
		Category: a.Category.String(),
		Source:   a.Source.String(),
		Note:     note,
	}
}

// Handle decodes a JSON request and returns the encoded reply.
func (bot *Bot) Handle(ctx context.Context, data []byte) []byte {
	var req Request
	var resp *Response
	if err := json.Unmarshal(data, &req); err != nil {
		resp = errorResponse("Could not parse request", err)
	} else {
		resp = bot.Analyze(ctx, req)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Should never happen, ideally, but we need to do something sensible here.
		return []byte(err.Error())
	}
	return out
}

// Listen subscribes the bot on channel. Each request is answered on its
// reply subject.
func (bot *Bot) Listen(ctx context.Context, nc *nats.Conn, channel string) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		if err := m.Respond(bot.Handle(ctx, m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return nil, err
	}
	if err := nc.Flush(); err != nil {
		return nil, err
	}
	if err := nc.LastError(); err != nil {
		return nil, err
	}
	return sub, nil
}

// Main connects to the configured NATS server and serves until ctx ends.
func Main(ctx context.Context, cfg *config.Config) error {
	b, err := NewBot(cfg)
	if err != nil {
		return err
	}
	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()

	channel := cfg.GetString(config.ConfigBotChannel)
	if _, err := b.Listen(ctx, nc, channel); err != nil {
		return err
	}
	log.Info().Msgf("Listening on [%s]", channel)
	<-ctx.Done()
	return nc.Drain()
}
