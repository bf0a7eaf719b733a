package command

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// PurgeCommandBuilder builds "purge", which removes stale entries.
func PurgeCommandBuilder() *cli.Command {
	return &cli.Command{
		Name:      "purge",
		Usage:     "remove entries older than a given age",
		ArgsUsage: "<directory>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "remove entries not modified within this duration; 0 removes everything",
				Value: 30 * 24 * time.Hour,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Aliases:     []string{"n"},
				Usage:       "only print what would be removed",
				HideDefault: true,
			},
		},
		Action: PurgeCommandAction,
	}
}

// PurgeCommandAction removes, or with --dry-run only reports, entries older
// than --older-than.
func PurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}

	olderThan := cmd.Duration("older-than")
	if olderThan < 0 {
		return fmt.Errorf("purge: --older-than must not be negative")
	}
	dryRun := cmd.Bool("dry-run")
	log := newLogger(cmd)

	removed, err := store.Purge(olderThan, time.Now(), dryRun)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	var total uint64
	for _, e := range removed {
		total += uint64(e.Size)
		log.Debug().Str("key", e.Key).Bool("dry_run", dryRun).Msg("purging entry")
		fmt.Fprintln(out, e.Key)
	}

	verb := "removed"
	if dryRun {
		verb = "would remove"
	}
	log.Info().
		Str("directory", store.Dir()).
		Int("entries", len(removed)).
		Str("size", humanize.Bytes(total)).
		Msgf("%s %d entries", verb, len(removed))
	return nil
}
