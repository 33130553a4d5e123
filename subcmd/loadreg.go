package subcmd

import (
	"fmt"

	"github.com/but80/scpilab/bench"
	"github.com/but80/scpilab/instrument"
	"github.com/but80/scpilab/log"
	"github.com/but80/scpilab/measurement"
	"github.com/urfave/cli"
)

var LoadRegulation = cli.Command{
	Name:    "loadreg",
	Aliases: []string{"lr"},
	Usage:   "Measures load regulation by sweeping the electronic load current",
	Flags: flags(
		configFlag,
		cli.StringFlag{Name: "psu", Usage: `Power supply name`, Value: "psu"},
		cli.StringFlag{Name: "load", Usage: `Electronic load name`, Value: "load"},
		cli.StringFlag{Name: "thermometer", Usage: `Multimeter name for temperature`, Value: "dmm"},
		cli.StringFlag{Name: "output-meter", Usage: `Multimeter name for output voltage`, Value: "dmm2"},
		cli.StringFlag{Name: "dut", Usage: `Device under test`, Value: measurement.DefaultLoadRegulationOptions.DUT},
		cli.Float64Flag{Name: "input-voltage", Usage: `Input voltage of the DUT (recorded only)`, Value: measurement.DefaultLoadRegulationOptions.InputVoltage},
		cli.Float64Flag{Name: "voltage", Usage: `PSU output voltage [V]`, Value: measurement.DefaultLoadRegulationOptions.PSUVoltage},
		cli.Float64Flag{Name: "current-limit", Usage: `PSU current limit [A]`, Value: measurement.DefaultLoadRegulationOptions.PSUCurrent},
		cli.StringFlag{Name: "sense", Usage: `PSU sense mode (2W|4W)`, Value: string(measurement.DefaultLoadRegulationOptions.Sense)},
		cli.DurationFlag{Name: "settling", Usage: `Settling time after each load current step`, Value: measurement.DefaultLoadRegulationOptions.SettlingTime},
		cli.Float64Flag{Name: "start", Usage: `First load current [A]`, Value: measurement.DefaultLoadRegulationOptions.StartCurrent},
		cli.Float64Flag{Name: "stop", Usage: `Last load current [A]`, Value: measurement.DefaultLoadRegulationOptions.StopCurrent},
		cli.Float64Flag{Name: "step", Usage: `Load current step [A]`, Value: measurement.DefaultLoadRegulationOptions.StepCurrent},
		cli.StringFlag{Name: "out, o", Usage: `Results directory`, Value: measurement.DefaultLoadRegulationOptions.ResultsPath},
		cli.StringFlag{Name: "prefix", Usage: `Results file name after the timestamp`, Value: measurement.DefaultLoadRegulationOptions.FilePrefix},
		cli.BoolFlag{Name: "protobuf, p", Usage: `Also write the results in protobuf`},
	),
	Action: func(ctx *cli.Context) (err error) {
		sense := instrument.SenseMode(ctx.String("sense"))
		if (sense != instrument.Sense2W && sense != instrument.Sense4W) || ctx.Float64("step") <= 0 {
			showHelpAndExit(ctx, "loadreg")
		}
		setLogLevel(ctx)
		opts := &measurement.LoadRegulationOptions{
			DUT:          ctx.String("dut"),
			Version:      Version,
			InputVoltage: ctx.Float64("input-voltage"),
			PSUVoltage:   ctx.Float64("voltage"),
			PSUCurrent:   ctx.Float64("current-limit"),
			Sense:        sense,
			SettlingTime: ctx.Duration("settling"),
			StartCurrent: ctx.Float64("start"),
			StopCurrent:  ctx.Float64("stop"),
			StepCurrent:  ctx.Float64("step"),
			ResultsPath:  ctx.String("out"),
			FilePrefix:   ctx.String("prefix"),
		}

		b, err := openBench(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closeBench(b, &err)
		lr := &measurement.LoadRegulation{}
		if lr.PSU, err = bench.Lookup[*instrument.SPD1305X](b, ctx.String("psu")); err != nil {
			return cli.NewExitError(err, 1)
		}
		if lr.Load, err = bench.Lookup[*instrument.DL3021A](b, ctx.String("load")); err != nil {
			return cli.NewExitError(err, 1)
		}
		if lr.Thermometer, err = lookupMeter(b, ctx.String("thermometer")); err != nil {
			return cli.NewExitError(err, 1)
		}
		if lr.OutputMeter, err = lookupMeter(b, ctx.String("output-meter")); err != nil {
			return cli.NewExitError(err, 1)
		}
		b.OnInterrupt(lr.Stop)

		result, err := lr.Run(opts)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		paths, err := result.Save(opts.ResultsPath, opts.FilePrefix, ctx.Bool("protobuf"))
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		log.Infof("results: %s", paths.Results)
		log.Infof("meta: %s", paths.Meta)
		if paths.Protobuf != "" {
			log.Infof("protobuf: %s", paths.Protobuf)
		}
		return nil
	},
}

func lookupMeter(b *bench.Bench, name string) (measurement.Meter, error) {
	inst, err := b.Instrument(name)
	if err != nil {
		return nil, err
	}
	m, ok := inst.(measurement.Meter)
	if !ok {
		return nil, fmt.Errorf("instrument %q cannot fetch readings", name)
	}
	return m, nil
}
