package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	wefterrors "github.com/weftdom/weft/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬ ┬┌─┐┌─┐┌┬┐
  │││├┤ ├┤  │
  └┴┘└─┘└   ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "weft",
		Short: "Tree reconciliation server",
		Long: `Weft diffs successive versions of a node tree and streams minimal
patch sequences to connected renderers.

Callers submit complete target trees; weft computes the difference
against the committed tree, batches rapid submissions into single
commits, and broadcasts ordered patches over WebSocket. A renderer
that misses frames resyncs from a bounded replay history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		var we *wefterrors.WeftError
		if errors.As(err, &we) {
			fmt.Fprintln(os.Stderr, we.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// printBanner prints the weft ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
