package main

import (
	"fmt"
	"os"

	sigmacli "github.com/drand/sigma/cmd/sigma-cli"
)

func main() {
	app := sigmacli.CLI()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "sigma: %v\n", err)
		os.Exit(1)
	}
}
