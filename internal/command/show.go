package command

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-memocache/codec"
)

// ShowCommandBuilder builds "show", which decodes one entry and prints it as
// canonical JSON.
func ShowCommandBuilder() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "decode and print one cache entry",
		ArgsUsage: "<directory> <key>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "gjson path selecting part of the entry, e.g. data.columns",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "entry format (json or msgpack); defaults to the configured format",
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print the stored bytes without decoding",
				HideDefault: true,
			},
		},
		Action: ShowCommandAction,
	}
}

// ShowCommandAction reads the entry, checks that it decodes and prints its
// canonical form, optionally narrowed by --query.
func ShowCommandAction(ctx context.Context, cmd *cli.Command) error {
	store, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("show: missing key argument")
	}
	key := cmd.Args().Get(1)

	data, err := store.Read(key)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	if cmd.Bool("raw") {
		_, err := out.Write(data)
		return err
	}

	name := cmd.String("format")
	if name == "" {
		name = cfg.Format
	}
	format, err := codec.ParseFormat(name)
	if err != nil {
		return err
	}
	c, err := codec.New(format)
	if err != nil {
		return err
	}

	value, err := c.Unmarshal(data)
	if err != nil {
		return err
	}
	doc, err := codec.Canonical(value)
	if err != nil {
		return err
	}
	log := newLogger(cmd)
	log.Debug().Str("path", store.Location(key)).Int("bytes", len(data)).Msg("decoded entry")

	if q := cmd.String("query"); q != "" {
		res := gjson.GetBytes(doc, q)
		if !res.Exists() {
			return fmt.Errorf("show: query %q matched nothing", q)
		}
		_, err := fmt.Fprintln(out, res.Raw)
		return err
	}
	_, err = fmt.Fprintln(out, string(doc))
	return err
}
