package cmd

import (
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var cfgFile string

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "recoveryagent",
	Short: "Host-agent recovery manager",
	Long: `recoveryagent watches the desired-vs-actual lifecycle state of managed
components on one host and schedules auto-recovery commands back to the
dispatcher, enforcing per-component rate limits and a TTL-bounded command
cache.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// SetVersion sets build metadata printed by the version subcommand.
func SetVersion(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}
