package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/search"
)

// variantAuto lets the strategy table pick the search variant.
const variantAuto = "auto"

// ShellOptions are per-session switches. Those that shadow a config key
// are written through to the config so the engine picks them up.
type ShellOptions struct {
	cfg     *config.Config
	variant string
	san     bool
}

func NewShellOptions(cfg *config.Config) *ShellOptions {
	return &ShellOptions{cfg: cfg, variant: variantAuto, san: true}
}

var boolOptions = map[string]string{
	"null-move":  config.ConfigNullMove,
	"lmr":        config.ConfigLMR,
	"quiescence": config.ConfigQuiescence,
	"tt":         config.ConfigTranspositionTable,
	"book":       config.ConfigUseBook,
}

var optionKeys = []string{"depth", "variant", "san", "null-move", "lmr", "quiescence", "tt", "book"}

func parseVariant(s string) (search.Variant, bool, error) {
	switch strings.ToLower(s) {
	case variantAuto:
		return 0, true, nil
	case "id", "iterative-deepening":
		return search.IterativeDeepening, false, nil
	case "lmr", "late-move-reductions":
		return search.LateMoveReductions, false, nil
	case "negamax":
		return search.Negamax, false, nil
	}
	return 0, false, fmt.Errorf("unknown variant %q; use auto, id, lmr or negamax", s)
}

func (opts *ShellOptions) Show(key string) (bool, string) {
	switch key {
	case "depth":
		return true, strconv.Itoa(opts.cfg.GetInt(config.ConfigSearchDepth))
	case "variant":
		return true, opts.variant
	case "san":
		return true, strconv.FormatBool(opts.san)
	}
	if ck, ok := boolOptions[key]; ok {
		return true, strconv.FormatBool(opts.cfg.GetBool(ck))
	}
	return false, "No such option: " + key
}

func (opts *ShellOptions) ToDisplayText() string {
	out := strings.Builder{}
	out.WriteString("Settings:\n")
	for _, key := range optionKeys {
		_, val := opts.Show(key)
		out.WriteString("  " + key + ": ")
		out.WriteString(val + "\n")
	}
	return out.String()
}

// Set changes one option and returns its new display value.
func (opts *ShellOptions) Set(key, value string) (string, error) {
	switch key {
	case "depth":
		d, err := strconv.Atoi(value)
		if err != nil || d < 1 || d > search.MaxDepth {
			return "", fmt.Errorf("depth must be between 1 and %d", search.MaxDepth)
		}
		opts.cfg.Set(config.ConfigSearchDepth, d)
	case "variant":
		if _, _, err := parseVariant(value); err != nil {
			return "", err
		}
		opts.variant = strings.ToLower(value)
	case "san":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", err
		}
		opts.san = b
	default:
		ck, ok := boolOptions[key]
		if !ok {
			return "", fmt.Errorf("no such option: %v", key)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", err
		}
		opts.cfg.Set(ck, b)
	}
	_, v := opts.Show(key)
	return v, nil
}
