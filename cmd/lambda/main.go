package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/theHamdiz/kishmat/bot"
	"github.com/theHamdiz/kishmat/config"
)

var cfg *config.Config
var nc *nats.Conn
var analyzer *bot.Bot

const HardTimeLimit = 180 * time.Second // max time per request

// HandleRequest analyzes the event's position. When the event names a
// reply channel the result is also sent there, retrying until someone
// acknowledges it.
func HandleRequest(ctx context.Context, evt bot.LambdaEvent) (string, error) {
	logger := log.With().
		Str("requestID", evt.RequestID).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, HardTimeLimit)
	resp := analyzer.Analyze(ctx, evt.Request)
	cancel()
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	if resp.Note != "" {
		// hit the time limit; the move is from the last finished depth.
		logger.Warn().Str("note", resp.Note).Int("depth", resp.Depth).Msg("search-cut-short")
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	if evt.ReplyChannel != "" && nc != nil {
		logger.Info().Msg("move-success-sending-via-nats")
		err = retry.Do(
			func() error {
				// We're just waiting for an acknowledgement. The actual
				// data doesn't matter.
				_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
				return err
			},
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).
					Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("bot-move-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	return resp.Move, nil
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg = &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())
	cfg.AdjustRelativePaths(exPath)
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	analyzer, err = bot.NewBot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-create-bot")
	}
	nc, err = nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}
