package subcmd

import (
	"os"

	"github.com/but80/scpilab/bench"
	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/measurement"
	"github.com/urfave/cli"
)

var Monitor = cli.Command{
	Name:    "monitor",
	Aliases: []string{"m"},
	Usage:   "Shows power supply and electronic load readings continuously",
	Flags: flags(
		configFlag,
		cli.StringFlag{Name: "psu", Usage: `Power supply name`, Value: "psu"},
		cli.StringFlag{Name: "load", Usage: `Electronic load name`, Value: "load"},
		cli.DurationFlag{Name: "interval, i", Usage: `Refresh interval`, Value: measurement.DefaultMonitorInterval},
		cli.IntFlag{Name: "count, n", Usage: `Number of refreshes (0: until interrupted)`},
	),
	Action: func(ctx *cli.Context) (err error) {
		if ctx.Int("count") < 0 || ctx.Duration("interval") <= 0 {
			showHelpAndExit(ctx, "monitor")
		}
		setLogLevel(ctx)
		b, err := openBench(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closeBench(b, &err)
		m := &measurement.Monitor{Interval: ctx.Duration("interval"), Out: os.Stdout}
		if m.PSU, err = bench.Lookup[*instrument.SPD1305X](b, ctx.String("psu")); err != nil {
			return cli.NewExitError(err, 1)
		}
		if m.Load, err = bench.Lookup[*instrument.DL3021A](b, ctx.String("load")); err != nil {
			return cli.NewExitError(err, 1)
		}
		b.OnInterrupt(m.Stop)
		if err := m.Run(ctx.Int("count")); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	},
}
