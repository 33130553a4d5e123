package subcmd

import (
	"fmt"
	"strconv"

	"github.com/but80/scpilab/bench"
	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/log"
	"github.com/urfave/cli"
)

var Waveform = cli.Command{
	Name:      "waveform",
	Aliases:   []string{"wf"},
	Usage:     "Captures a waveform from the oscilloscope and prints it in volts",
	ArgsUsage: "<channel (1..4)>",
	Flags: flags(
		configFlag,
		cli.StringFlag{Name: "scope", Usage: `Oscilloscope name`, Value: "scope"},
	),
	Action: func(ctx *cli.Context) (err error) {
		if ctx.NArg() < 1 {
			showHelpAndExit(ctx, "waveform")
		}
		ch, cerr := strconv.Atoi(ctx.Args().First())
		if cerr != nil || ch < 1 || instrument.ScopeChannels < ch {
			showHelpAndExit(ctx, "waveform")
		}
		setLogLevel(ctx)
		b, err := openBench(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closeBench(b, &err)
		scope, err := bench.Lookup[*instrument.SDS1104X](b, ctx.String("scope"))
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		volts, err := scope.Waveform(ch)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		log.Infof("%d samples", len(volts))
		for _, v := range volts {
			fmt.Println(strconv.FormatFloat(v, 'g', -1, 64))
		}
		return nil
	},
}
