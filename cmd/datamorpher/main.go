package main

import (
	"os"

	"github.com/JonMunkholm/datamorpher/cmd/datamorpher/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
