package main

import (
	"github.com/nbkit/nbsync/cmd"
	"github.com/nbkit/nbsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
