package mergecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/devchat/cmd/devchat/sqlitepath"
	"github.com/papercomputeco/devchat/pkg/merkle"
)

const mergeLongDesc string = `Merge one or more transcript databases into a target.

Transcript nodes are content-addressed, so this is a simple union:
nodes that already exist in the target are skipped. Conversations
that share a prefix stay shared after the merge.

Examples:
  devchat merge laptop.db desktop.db
  devchat merge --sqlite /tmp/merged.db ~/alice/devchat.db ~/bob/devchat.db`

const mergeShortDesc string = "Merge transcript databases"

type mergeCommander struct {
	sqlitePath string
}

type mergeStats struct {
	added   int
	skipped int
}

func NewMergeCmd() *cobra.Command {
	cmder := &mergeCommander{}

	cmd := &cobra.Command{
		Use:   "merge [sources...]",
		Short: mergeShortDesc,
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to target SQLite database")

	return cmd
}

func (c *mergeCommander) run(ctx context.Context, cmd *cobra.Command, sources []string) error {
	targetPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return fmt.Errorf("could not resolve target database: %w", err)
	}

	target, err := merkle.NewSQLiteStorer(targetPath)
	if err != nil {
		return fmt.Errorf("could not open target database %s: %w", targetPath, err)
	}
	defer target.Close()

	var total mergeStats
	for _, srcPath := range sources {
		stats, err := mergeFrom(ctx, target, srcPath)
		if err != nil {
			return err
		}

		total.added += stats.added
		total.skipped += stats.skipped

		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d new, %d already existed\n", srcPath, stats.added, stats.skipped)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d new nodes from %d sources (%d already existed) into %s\n",
		total.added, len(sources), total.skipped, targetPath)

	return nil
}

func mergeFrom(ctx context.Context, target merkle.Storer, srcPath string) (mergeStats, error) {
	var stats mergeStats

	source, err := merkle.NewSQLiteStorer(srcPath)
	if err != nil {
		return stats, fmt.Errorf("could not open source database %s: %w", srcPath, err)
	}
	defer source.Close()

	nodes, err := source.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("could not list nodes from %s: %w", srcPath, err)
	}

	for _, n := range nodes {
		isNew, err := target.Put(ctx, n)
		if err != nil {
			return stats, fmt.Errorf("could not put node %s: %w", n.Hash, err)
		}
		if isNew {
			stats.added++
		} else {
			stats.skipped++
		}
	}

	return stats, nil
}
