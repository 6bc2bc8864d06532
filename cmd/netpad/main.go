package main

import (
	"github.com/netpad-project/netpad/internal/cli"
)

func main() {
	cli.Execute()
}
