package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rawbytedev/bytebuf/internal/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bufprof",
	Short: "Exercise and profile bytebuf buffers",
	Long: `bufprof replays buffer scenarios and profiles frame assembly.

Commands:
  run <scenario.yaml>  - Replay scripted buffer operations and check expectations
  profile              - Encode compactwire frames into a buffer in a loop`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetDebug(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(runCmd, profileCmd)
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
