// Copyright © 2018 One Concern

package main

import (
	"github.com/violetcereza/djtag-sync/cmd/djtag/cmd"
)

func main() {
	cmd.Execute()
}
