// Command yeetboxctl is a thin client for exercising a yeetboxd server's
// wire protocol from outside: authenticate, make directories, upload,
// download, delete, list.
package main

import (
	"fmt"
	"os"

	"github.com/yeetbox/yeetbox/cmd/yeetboxctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
