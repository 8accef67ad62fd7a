package main

import (
	"fmt"
	"os"

	"github.com/nimeshabuddhika/treasury-desk/services/deskctl/commands"
)

func main() {
	if err := commands.NewRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
