package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/engine"
	"github.com/theHamdiz/kishmat/stats"
)

// BatchFile is the yaml layout read by the batch command. Each position
// gives either a FEN or SAN move text from the start.
type BatchFile struct {
	Depth     int             `yaml:"depth"`
	Positions []BatchPosition `yaml:"positions"`
}

type BatchPosition struct {
	Name  string `yaml:"name"`
	FEN   string `yaml:"fen,omitempty"`
	Moves string `yaml:"moves,omitempty"`
}

type batchResult struct {
	name     string
	analysis engine.Analysis
	san      string
	err      error
}

func (bp BatchPosition) position() (*board.Position, error) {
	switch {
	case bp.FEN != "" && bp.Moves != "":
		return nil, fmt.Errorf("%v: give fen or moves, not both", bp.Name)
	case bp.FEN != "":
		return board.FromFEN(bp.FEN)
	case bp.Moves != "":
		return board.FromMoveText(bp.Moves)
	}
	return board.StartingPosition(), nil
}

func ParseBatchFile(data []byte) (*BatchFile, error) {
	var bf BatchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, err
	}
	if len(bf.Positions) == 0 {
		return nil, errors.New("batch file has no positions")
	}
	for i := range bf.Positions {
		if bf.Positions[i].Name == "" {
			bf.Positions[i].Name = fmt.Sprintf("#%d", i+1)
		}
	}
	return &bf, nil
}

// runBatch analyzes every position with a pool of engines. The configured
// table memory is split evenly between the workers.
func runBatch(ctx context.Context, cfg *config.Config, bf *BatchFile, workers int) ([]batchResult, error) {
	workers = max(1, min(workers, len(bf.Positions)))
	mb := max(1, cfg.GetInt(config.ConfigTTMegabytes)/workers)
	pool := make(chan *engine.Engine, workers)
	for range workers {
		e, err := engine.New(cfg, engine.WithTTMegabytes(mb))
		if err != nil {
			return nil, err
		}
		pool <- e
	}

	results := make([]batchResult, len(bf.Positions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, bp := range bf.Positions {
		g.Go(func() error {
			r := &results[i]
			r.name = bp.Name
			pos, err := bp.position()
			if err != nil {
				r.err = err
				return nil
			}
			e := <-pool
			defer func() { pool <- e }()
			a, err := e.Analyze(ctx, pos.Copy(), bf.Depth)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.analysis, r.err = a, err
			if err == nil {
				r.san = pos.SAN(a.Move)
			}
			log.Debug().Str("name", bp.Name).Err(err).Msg("batch-position-done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (sc *ShellController) batch(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: batch <positions.yaml> [-workers n]")
	}
	data, err := os.ReadFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	bf, err := ParseBatchFile(data)
	if err != nil {
		return nil, err
	}
	workers, err := cmd.options.IntDefault("workers", sc.config.GetInt(config.ConfigBatchWorkers))
	if err != nil {
		return nil, err
	}
	ctx, done := sc.searchContext()
	defer done()

	start := time.Now()
	results, err := runBatch(ctx, sc.config, bf, workers)
	if err != nil {
		return nil, err
	}
	return msg(formatBatch(results, time.Since(start))), nil
}

func formatBatch(results []batchResult, elapsed time.Duration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-20s%-10s%-12s%-12s%-8s%12s\n", "name", "move", "score", "category", "source", "nodes")
	var nodes []float64
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(&sb, "%-20s error: %v\n", r.name, r.err)
			continue
		}
		a := r.analysis
		fmt.Fprintf(&sb, "%-20s%-10s%-12s%-12v%-8v%12d\n", r.name, r.san, scoreText(a.Score), a.Category, a.Source, a.Nodes)
		if a.Source == engine.SourceSearch {
			nodes = append(nodes, float64(a.Nodes))
		}
	}
	if len(nodes) > 0 {
		fmt.Fprintf(&sb, "nodes: %v\n", stats.Summarize(nodes))
	}
	fmt.Fprintf(&sb, "finished %d positions in %v", len(results), elapsed.Round(time.Millisecond))
	return sb.String()
}
