package main

import (
	"github.com/FredHutch/docker-sra/cmd"
)

func main() {
	cmd.Execute() // initialize the cobra command
}
