// Command lottery operates a pooled-stake lottery on a persistent local
// development chain.
package main

import (
	"fmt"
	"os"

	logger "github.com/ElrondNetwork/elrond-go-logger"
	"github.com/urfave/cli"

	"github.com/bitfsorg/lottery-go/network"
)

var log = logger.GetOrCreate("lottery/cmd")

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "lottery"
	app.Usage = "pooled-stake lottery on a local development chain"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to lottery.toml (default: <datadir>/lottery.toml)"},
		cli.StringFlag{Name: "datadir", Usage: "directory holding the config and databases (default: ~/.lottery)"},
		cli.BoolFlag{Name: "onchain", Usage: "settle on a BSV node: header entropy and P2PKH payouts from the manager's key"},
		cli.StringFlag{Name: "rpc-url", Usage: "node JSON-RPC URL (overrides " + network.EnvRPCURL + " and [rpc])"},
		cli.StringFlag{Name: "rpc-user", Usage: "node RPC user"},
		cli.StringFlag{Name: "rpc-pass", Usage: "node RPC password"},
	}
	app.Commands = commands()
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
