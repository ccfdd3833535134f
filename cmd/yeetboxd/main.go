// Command yeetboxd runs the versioned remote-filesystem server: the KVS,
// blob stores, path resolver, object engine, and service facade wired
// together per cmd/yeetboxd/commands.
package main

import (
	"fmt"
	"os"

	"github.com/yeetbox/yeetbox/cmd/yeetboxd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
