package main

import (
	"github.com/oshokin/ublock-chrome/cmd/ublock-chrome/cmd"
)

func main() {
	cmd.Execute()
}
