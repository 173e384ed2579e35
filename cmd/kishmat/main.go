package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/engine"
	"github.com/theHamdiz/kishmat/shell"
	"github.com/theHamdiz/kishmat/uci"
	"github.com/theHamdiz/kishmat/xboard"
)

var (
	GitVersion string
)

//go:embed kishmat.txt
var kishmatbanner string

func setUpLogging(cfg *config.Config) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	var logger zerolog.Logger
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func writeMemProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		panic("could not create memory profile: " + err.Error())
	}
	defer f.Close()
	memstats := &runtime.MemStats{}
	runtime.ReadMemStats(memstats)
	log.Info().Interface("memstats", memstats).Msg("memory-stats")
	if err := pprof.WriteHeapProfile(f); err != nil {
		panic("could not write memory profile: " + err.Error())
	}
	log.Info().Msg("wrote memory profile")
}

func main() {
	// Determine the directory of the executable. Relative paths in the
	// config are resolved against it.
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.AdjustRelativePaths(exPath)
	setUpLogging(cfg)
	log.Debug().Msgf("Loaded config: %v, exPath: %v", cfg.SanitizedSettings(), exPath)

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}
	if mp := cfg.GetString(config.ConfigMemProfile); mp != "" {
		defer writeMemProfile(mp)
	}

	args := cfg.Args()
	if len(args) > 0 && (args[0] == "uci" || args[0] == "xboard") {
		runProtocol(cfg, args[0])
		return
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	sc, err := shell.NewShellController(cfg, exPath, GitVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("could not start shell")
	}
	argsLine := strings.TrimSpace(strings.Join(args, " "))
	if argsLine == "" {
		fmt.Println(kishmatbanner)
		fmt.Println(GitVersion)
		go sc.Loop(sig)
	} else {
		sc.Execute(argsLine)
		sig <- syscall.SIGINT
	}

	<-idleConnsClosed
	sc.Cleanup()
	log.Info().Msg("shutting down")
}

// runProtocol speaks an engine protocol, uci or xboard, on stdin and
// stdout until quit, end of input or a signal.
func runProtocol(cfg *config.Config, name string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	e, err := engine.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create engine")
	}
	var loop interface{ Run(context.Context) error }
	if name == "xboard" {
		loop = xboard.New(e, os.Stdin, os.Stdout)
	} else {
		loop = uci.New(e, os.Stdin, os.Stdout)
	}
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	// a blocked read on stdin does not see the context, so a signal ends
	// the loop from here.
	select {
	case err := <-done:
		if err != nil {
			log.Err(err).Str("protocol", name).Msg("protocol-loop-ended")
		}
	case <-ctx.Done():
		log.Info().Msg("got quit signal...")
	}
}
