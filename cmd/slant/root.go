// slant asks a news question across a fixed set of outlets and reports how
// each outlet's coverage leans.
//
// Usage:
//
//	slant ask "How are the new tariffs being covered?" [--format text|json|html]
//	slant history [--limit 20] [--subject tariffs] [--failed]
//	slant config init [--force]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	metricsPort int
}

// app carries state shared by subcommands. newDeps is replaced in tests.
type app struct {
	flags   rootFlags
	newDeps depsFactory
}

func newRootCmd() *cobra.Command {
	return (&app{newDeps: buildDeps}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slant",
		Short: "Compare how news outlets cover the same question",
		Long: "Slant searches allow-listed outlets for a question, extracts each article,\n" +
			"scores its sentiment toward the subject and compares the outlets.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.flags.configPath, "config", "c", "", "Config file (default ./slant.yaml or ~/.config/slant/slant.yaml)")
	f.StringVar(&a.flags.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	f.StringVar(&a.flags.logFormat, "log-format", "", "Override logging.format (text, json)")
	f.IntVar(&a.flags.metricsPort, "metrics-port", -1, "Expose Prometheus metrics on this port (0 disables)")

	root.AddCommand(a.askCmd())
	root.AddCommand(a.historyCmd())
	root.AddCommand(a.configCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
