// Command cordyceps renders HTML documents through a cordyceps container.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/cordyceps/cmd/cordyceps/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
