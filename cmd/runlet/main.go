package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "runlet",
	Short: "Runlet - remote guest code execution service",
	Long: `Runlet downloads JavaScript (.js) or WebAssembly (.wasm) code from a URL
and executes it in an isolated guest sandbox with a fixed capability surface
(log, clock, fetch), returning a uniform result envelope.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
