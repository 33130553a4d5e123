package subcmd

import (
	"os"

	"github.com/but80/scpilab/bench"
	"github.com/but80/scpilab/log"
	"github.com/urfave/cli"
)

// Version は、メタデータに記録するプログラムのバージョンです。
var Version = "unknown"

var configFlag = cli.StringFlag{
	Name:  "config, c",
	Usage: `Bench configuration file (YAML). Uses the built-in lab bench if omitted`,
}

var logFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "debug, d",
		Usage: `Show debug messages`,
	},
	cli.BoolFlag{
		Name:  "quiet, q",
		Usage: `Suppress information messages`,
	},
	cli.BoolFlag{
		Name:  "silent, Q",
		Usage: `Do not output any messages`,
	},
}

func flags(fs ...cli.Flag) []cli.Flag {
	return append(fs, logFlags...)
}

func setLogLevel(ctx *cli.Context) {
	if ctx.Bool("debug") {
		log.Level = log.LogLevel_Debug
	} else if ctx.Bool("silent") {
		log.Level = log.LogLevel_None
	} else if ctx.Bool("quiet") {
		log.Level = log.LogLevel_Warn
	}
}

func showHelpAndExit(ctx *cli.Context, name string) {
	cli.ShowCommandHelp(ctx, name)
	os.Exit(1)
}

func loadConfig(ctx *cli.Context) (*bench.Config, error) {
	path := ctx.String("config")
	if path == "" {
		return bench.DefaultConfig(), nil
	}
	return bench.LoadConfig(path)
}

// openBench は、設定ファイルの計測器に接続し、シグナルで終了したときにも解放されるようにします。
func openBench(ctx *cli.Context) (*bench.Bench, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	b, err := bench.Open(cfg)
	if err != nil {
		return nil, err
	}
	b.BindCloser()
	return b, nil
}

// closeBench は、計測器を解放します。解放に失敗しても元のエラーを優先します。
func closeBench(b *bench.Bench, err *error) {
	if cerr := b.Close(); cerr != nil {
		log.Errorf("%s", cerr)
		if *err == nil {
			*err = cli.NewExitError(cerr, 1)
		}
	}
}
