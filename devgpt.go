package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cunhaax/dev-gpt/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "dev-gpt",
		Usage:   "Generate deployable microservices from natural-language descriptions",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "dev-gpt.toml",
			},
		},
		Commands: []*cli.Command{
			cmd.GenerateCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
