// Command balltrack tracks a single ball in a camera stream or a simulation
// and predicts where it lands.
package main

import (
	"github.com/alecthomas/kong"
)

// Globals are flags shared by all commands.
type Globals struct {
	Config   string `help:"YAML configuration file." short:"c" type:"existingfile"`
	LogLevel string `help:"Log level." enum:"debug,info,warn,error" default:"info"`
	LogFile  string `help:"Write logs into a size rotated file instead of stderr."`
}

// CLI is the command line interface.
type CLI struct {
	Globals

	Run      RunCmd      `cmd:"" help:"Track a ball seen by a camera."`
	Simulate SimulateCmd `cmd:"" help:"Track a simulated ball."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("balltrack"),
		kong.Description("Single ball tracking and landing prediction."),
		kong.HelpOptions{Compact: true, FlagsLast: true},
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
