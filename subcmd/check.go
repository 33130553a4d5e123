package subcmd

import (
	"os"

	"github.com/but80/scpilab/bench"
	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/measurement"
	"github.com/urfave/cli"
)

var Check = cli.Command{
	Name:    "check",
	Aliases: []string{"c"},
	Usage:   "Exercises the multimeter, the scope and the power supply once",
	Flags: flags(
		configFlag,
		cli.StringFlag{Name: "meter", Usage: `HMC8012 multimeter name`, Value: "dmm"},
		cli.StringFlag{Name: "scope", Usage: `Oscilloscope name`, Value: "scope"},
		cli.StringFlag{Name: "psu", Usage: `Power supply name`, Value: "psu"},
	),
	Action: func(ctx *cli.Context) (err error) {
		setLogLevel(ctx)
		b, err := openBench(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closeBench(b, &err)
		c := &measurement.Check{Out: os.Stdout}
		if c.Meter, err = bench.Lookup[*instrument.HMC8012](b, ctx.String("meter")); err != nil {
			return cli.NewExitError(err, 1)
		}
		if c.Scope, err = bench.Lookup[*instrument.SDS1104X](b, ctx.String("scope")); err != nil {
			return cli.NewExitError(err, 1)
		}
		if c.PSU, err = b.Instrument(ctx.String("psu")); err != nil {
			return cli.NewExitError(err, 1)
		}
		if err := c.Run(); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	},
}
