package main

import (
	"context"
	"fmt"
	"io"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/qiniu/ghostsite/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "ghostsite",
	Short:         "Update and publish the haunted automaton site",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		printBanner(cmd.OutOrStdout())
	},
	// with no verb, or an unknown one, only the banner is shown
	Args: cobra.ArbitraryArgs,
	Run:  func(cmd *cobra.Command, args []string) {},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ghostsite.yaml", "path to the configuration file")
	rootCmd.AddCommand(blogCmd, artCmd, deployCmd, metricsCmd, updateCmd, verifyCmd, historyCmd)
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "🏚️👻 Haunted Site Updater Ready")
	fmt.Fprintln(w, "Usage examples:")
	fmt.Fprintln(w, `- ghostsite blog "New Post" "Content here"`)
	fmt.Fprintln(w, `- ghostsite art "Poem Title" "Poetry content"`)
	fmt.Fprintln(w, `- ghostsite deploy "Custom commit message"`)
	fmt.Fprintln(w, `- ghostsite metrics '{"presence":"UNSTABLE"}'`)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
