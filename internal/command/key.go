package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-memocache/cache"
	"github.com/goliatone/go-memocache/codec"
)

// KeyCommandBuilder builds "key", which prints the entry name a call would
// use. Handy for locating the entry of a known call.
func KeyCommandBuilder() *cli.Command {
	return &cli.Command{
		Name:      "key",
		Usage:     "print the cache key for a list of arguments",
		ArgsUsage: "[argument...]",
		Description: "Arguments are parsed as entry JSON when possible and taken as strings otherwise,\n" +
			"so 4 is a number, '\"4\"' a string and '[1,2]' a list. Plain numeric lists are\n" +
			"float64 arrays for the array strategy; pass a tagged array record for other dtypes.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "key strategy (join, concat, array, one, date_place); defaults to the configured one",
			},
			&cli.StringSliceFlag{
				Name:  "named",
				Usage: "named argument as name=value; repeatable",
			},
		},
		Action: KeyCommandAction,
	}
}

// KeyCommandAction prints the validated key.
func KeyCommandAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name := cmd.String("strategy")
	if name == "" {
		name = cfg.KeyStrategy
	}
	strategy, err := cache.KeyStrategyByName(name)
	if err != nil {
		return err
	}

	positional := make([]any, 0, cmd.Args().Len())
	for _, raw := range cmd.Args().Slice() {
		positional = append(positional, parseArg(raw, name))
	}
	args := cache.Positional(positional...)

	for _, pair := range cmd.StringSlice("named") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return fmt.Errorf("key: --named wants name=value, got %q", pair)
		}
		args = args.With(k, parseArg(v, name))
	}

	key, err := strategy(args)
	if err != nil {
		return err
	}
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	log := newLogger(cmd)
	log.Debug().Str("strategy", name).Int("args", args.Len()).Msg("derived key")

	_, err = fmt.Fprintln(cmd.Root().Writer, key)
	return err
}

func parseArg(raw, strategy string) any {
	v, err := codec.Default.Unmarshal([]byte(raw))
	if err != nil {
		return raw
	}
	if list, ok := v.([]any); ok && strategy == cache.StrategyArray {
		if nums, ok := floats(list); ok {
			return nums
		}
	}
	return v
}

func floats(list []any) ([]float64, bool) {
	out := make([]float64, len(list))
	for i, v := range list {
		switch n := v.(type) {
		case float64:
			out[i] = n
		case int64:
			out[i] = float64(n)
		default:
			return nil, false
		}
	}
	return out, true
}
