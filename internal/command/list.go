package command

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

type listedEntry struct {
	Key      string    `json:"key"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListCommandBuilder builds "list", which prints the entries of one cache
// directory.
func ListCommandBuilder() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "list the entries of a cache directory",
		ArgsUsage: "<directory>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print one JSON object per entry",
				HideDefault: true,
			},
		},
		Action: ListCommandAction,
	}
}

// ListCommandAction prints key, size and age of every entry.
func ListCommandAction(ctx context.Context, cmd *cli.Command) error {
	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}

	entries, err := store.List()
	if err != nil {
		return err
	}
	log := newLogger(cmd)
	log.Debug().Str("directory", store.Dir()).Int("entries", len(entries)).Msg("listed cache directory")

	if cmd.Bool("json") {
		enc := json.NewEncoder(cmd.Root().Writer)
		for _, e := range entries {
			if err := enc.Encode(listedEntry{Key: e.Key, Path: e.Path, Size: e.Size, Modified: e.ModTime}); err != nil {
				return err
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
	var total uint64
	for _, e := range entries {
		total += uint64(e.Size)
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, humanize.Bytes(uint64(e.Size)), humanize.Time(e.ModTime))
	}
	fmt.Fprintf(w, "%d entries\t%s\t\n", len(entries), humanize.Bytes(total))
	return w.Flush()
}
