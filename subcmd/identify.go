package subcmd

import (
	"fmt"

	"github.com/urfave/cli"
)

var Identify = cli.Command{
	Name:    "identify",
	Aliases: []string{"i"},
	Usage:   "Shows *IDN? of every instrument on the bench",
	Flags:   flags(configFlag),
	Action: func(ctx *cli.Context) (err error) {
		setLogLevel(ctx)
		b, err := openBench(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closeBench(b, &err)
		ids, err := b.Identify()
		for _, id := range ids {
			fmt.Printf("%-8s %-10s %s\n", id.Name, id.Model, id.ID)
		}
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	},
}
