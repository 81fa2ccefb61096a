package main

import (
	"os"

	"github.com/conneroisu/ngssc/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
