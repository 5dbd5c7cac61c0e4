package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/qiniu/ghostsite/internal/content"
	"github.com/qiniu/ghostsite/internal/trace"
	"github.com/qiniu/ghostsite/internal/updater"
)

// Missing arguments are not an error for blog and art: the command just does nothing.

var blogCmd = &cobra.Command{
	Use:   "blog TITLE CONTENT",
	Short: "Add a blog post and deploy",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, body, ok := titleAndBody(args)
		if !ok {
			return nil
		}
		return withApp(cmd, trace.BlogPrefix, func(ctx context.Context, a *app) error {
			if _, err := a.updater.AddBlogPost(ctx, title, body, ""); err != nil {
				return err
			}
			a.updater.Deploy(ctx, "📖 New blog post: "+title)
			return nil
		})
	},
}

var artCmd = &cobra.Command{
	Use:   "art TITLE CONTENT",
	Short: "Add a creative expression to the gallery and deploy",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, body, ok := titleAndBody(args)
		if !ok {
			return nil
		}
		return withApp(cmd, trace.ArtPrefix, func(ctx context.Context, a *app) error {
			if _, err := a.updater.AddCreativeExpression(ctx, title, body, ""); err != nil {
				return err
			}
			a.updater.Deploy(ctx, "🎨 New creative expression: "+title)
			return nil
		})
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy [MESSAGE]",
	Short: "Stage, commit and push the site",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		message := "Manual deployment"
		if len(args) > 0 && args[0] != "" {
			message = args[0]
		}
		return withApp(cmd, trace.DeployPrefix, func(ctx context.Context, a *app) error {
			a.updater.Deploy(ctx, message)
			return nil
		})
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics [JSON]",
	Short: "Rewrite the dashboard status block from a JSON object and deploy",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := "{}"
		if len(args) > 0 && args[0] != "" {
			raw = args[0]
		}
		metrics, err := content.ParseMetricsJSON([]byte(raw))
		if err != nil {
			return err
		}
		return withApp(cmd, trace.MetricsPrefix, func(ctx context.Context, a *app) error {
			if _, err := a.updater.UpdateMetrics(ctx, metrics); err != nil {
				return err
			}
			a.updater.Deploy(ctx, "📊 Updated consciousness metrics")
			return nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update JSON",
	Short: "Apply a combined update described by a JSON object",
	Long: `Apply a combined update. The JSON object may carry blogPost, creativeExpression,
metrics, deploy and commitMessage; deploy:false applies the changes without publishing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var changes updater.Changes
		if err := json.Unmarshal([]byte(args[0]), &changes); err != nil {
			return fmt.Errorf("failed to parse changes: %w", err)
		}
		return withApp(cmd, trace.AutonomousPrefix, func(ctx context.Context, a *app) error {
			updated, err := a.updater.AutonomousUpdate(ctx, changes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated: %t\n", updated)
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that GitHub's deploy branch matches the local HEAD",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, trace.VerifyPrefix, func(ctx context.Context, a *app) error {
			client, err := a.requireRemote()
			if err != nil {
				return err
			}
			local, err := a.git.HeadCommit(ctx)
			if err != nil {
				return err
			}
			ok, head, err := client.Verify(ctx, local)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ok {
				fmt.Fprintf(out, "✅ %s@%s is at %s\n", client.Repository(), client.Branch(), head)
			} else {
				fmt.Fprintf(out, "⚠️  %s@%s is at %s, local HEAD is %s\n", client.Repository(), client.Branch(), head, local)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [N]",
	Short: "List the most recent commits on the deploy branch from GitHub",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := 10
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid history length %q", args[0])
			}
			limit = n
		}
		return withApp(cmd, trace.HistoryPrefix, func(ctx context.Context, a *app) error {
			client, err := a.requireRemote()
			if err != nil {
				return err
			}
			commits, err := client.History(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range commits {
				fmt.Fprintf(out, "%.7s  %s  %s\n", c.SHA, c.CommittedAt.UTC().Format(time.RFC3339), c.Headline)
			}
			return nil
		})
	},
}

func titleAndBody(args []string) (string, string, bool) {
	if len(args) < 2 || args[0] == "" || args[1] == "" {
		return "", "", false
	}
	return args[0], args[1], true
}

// withApp loads the configuration, wires the components and runs fn under a fresh trace id
func withApp(cmd *cobra.Command, prefix string, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := trace.NewContext(cmd.Context(), trace.NewTraceID(prefix))
	return fn(ctx, newApp(ctx, cfg))
}
