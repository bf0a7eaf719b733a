package command

import (
	"io"
	"sort"

	"github.com/urfave/cli/v3"
)

// EnvConfig names the environment variable that can point at a config file.
const EnvConfig = "MEMOCACHE_CONFIG"

// NewApp builds the memocache command tree writing results to out and logs
// to errOut.
func NewApp(out, errOut io.Writer) *cli.Command {
	app := &cli.Command{
		Name:      "memocache",
		Usage:     "inspect and maintain memoization cache directories",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				Sources: cli.NewValueSourceChain(cli.EnvVar(EnvConfig)),
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "cache root; overrides the config file and CACHE_DIR",
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "log debug messages",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		ListCommandBuilder(),
		ShowCommandBuilder(),
		PurgeCommandBuilder(),
		KeyCommandBuilder(),
	)

	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app
}
