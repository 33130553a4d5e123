package subcmd

import (
	"fmt"
	"strings"

	"github.com/but80/scpilab/log"
	"github.com/but80/scpilab/scpi"
	"github.com/urfave/cli"
)

var Query = cli.Command{
	Name:      "query",
	Aliases:   []string{"q"},
	Usage:     "Sends a SCPI command to an instrument and prints the response",
	ArgsUsage: "<instrument> <command> [<params>...]",
	Flags: flags(
		configFlag,
		cli.BoolFlag{
			Name:  "write, w",
			Usage: `Send only, do not read a response even if the command ends with "?"`,
		},
		cli.BoolFlag{
			Name:  "errors, e",
			Usage: `Drain the error queue (SYST:ERR?) afterwards`,
		},
	),
	Action: func(ctx *cli.Context) (err error) {
		if ctx.NArg() < 2 {
			showHelpAndExit(ctx, "query")
		}
		setLogLevel(ctx)
		args := ctx.Args()
		cmd := scpi.Raw(args[1])
		if err := cmd.Validate(); err != nil {
			return cli.NewExitError(err, 1)
		}
		query := strings.HasSuffix(strings.TrimSpace(args[1]), scpi.QuerySuffix) && !ctx.Bool("write")
		params := strings.Join(args[2:], " ")

		b, err := openBench(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closeBench(b, &err)
		inst, err := b.Instrument(args[0])
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		s := scpi.NewSession(inst.Transport())
		if query {
			r, err := s.Transmit(cmd, params, true)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			fmt.Println(r)
		} else if err := s.Write(cmd, params, false); err != nil {
			return cli.NewExitError(err, 1)
		}
		if ctx.Bool("errors") {
			errs, err := s.Errors()
			for _, e := range errs {
				log.Warnf("%s", e)
			}
			if err != nil {
				return cli.NewExitError(err, 1)
			}
		}
		return nil
	},
}
