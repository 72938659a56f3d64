package main

import (
	"fmt"
	"os"

	"github.com/zjy-dev/covrun/cmd/covrun/app"
	coverrs "github.com/zjy-dev/covrun/internal/errors"
)

func main() {
	if err := app.NewCovrunCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(coverrs.ExitCode(err))
	}
}
