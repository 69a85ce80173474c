package main

import (
	"github.com/alecthomas/kong"

	"github.com/vitaminmoo/blecon/internal/cli"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("blecon"),
		kong.Description("Console for BLE serial peripherals."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&c))
}
