package main

import (
	"os"

	"github.com/conneroisu/contactbook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
