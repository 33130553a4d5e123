package subcmd

import (
	"fmt"

	"github.com/urfave/cli"
)

var Config = cli.Command{
	Name:  "config",
	Usage: "Validates the bench configuration and prints it with defaults filled in",
	Flags: flags(configFlag),
	Action: func(ctx *cli.Context) error {
		setLogLevel(ctx)
		cfg, err := loadConfig(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if err := cfg.Validate(); err != nil {
			return cli.NewExitError(err, 1)
		}
		b, err := cfg.Marshal()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Print(string(b))
		return nil
	},
}
