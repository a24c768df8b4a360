// Command idnode-cli is the minimal client surface of spec §4.1, expanded
// per this repository's own conventions into a full urfave/cli/v2 app —
// following tos-network-gtos's cmd/toskey layout: one file per subcommand,
// main.go wires app.Commands and a small set of flags shared across them.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "directory holding node identity, config, and caches",
		Value: "./data",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to the idnode TOML config file",
		Value: "./idnode.toml",
	}
	nodeNameFlag = &cli.StringFlag{
		Name:  "node",
		Usage: "node identity file basename under datadir",
		Value: "idnode",
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "output JSON instead of human-readable format",
	}
)

func main() {
	app := &cli.App{
		Name:  "idnode-cli",
		Usage: "publish, resolve, and register self-certifying DHT identities",
		Flags: []cli.Flag{dataDirFlag, configFlag, nodeNameFlag},
		Commands: []*cli.Command{
			commandPublish,
			commandLookup,
			commandUpdate,
			commandRegister,
			commandRenew,
			commandUpdateProfile,
			commandListen,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
