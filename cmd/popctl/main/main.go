package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/popctl/cmd/popctl"
	"github.com/arthur-debert/popctl/pkg/style"
)

func main() {
	rootCmd := popctl.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		errorStyle := style.Get("Error")
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
