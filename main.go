package main

import (
	"os"

	"github.com/but80/scpilab/subcmd"
	"github.com/urfave/cli"
)

var version string

func init() {
	if version == "" {
		version = "unknown"
	}
}

func main() {
	subcmd.Version = version

	app := cli.NewApp()
	app.Name = "scpilab"
	app.Version = version
	app.Usage = "Drives bench instruments over SCPI and runs measurement sequences"
	app.Authors = []cli.Author{
		{
			Name:  "but80",
			Email: "mersenne.sister@gmail.com",
		},
	}
	app.HelpName = "scpilab"

	app.Commands = []cli.Command{
		subcmd.Identify,
		subcmd.Query,
		subcmd.Check,
		subcmd.LoadRegulation,
		subcmd.Monitor,
		subcmd.Waveform,
		subcmd.Config,
	}

	app.Action = func(ctx *cli.Context) error {
		cli.ShowAppHelp(ctx)
		return nil
	}

	app.Run(os.Args)
}
