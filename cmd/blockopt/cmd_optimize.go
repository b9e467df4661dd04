package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"blockopt/internal/block"
	"blockopt/internal/optimize"
)

var (
	optimizeStock  string
	optimizeSelect []string
	optimizeAll    bool
	optimizeTopN   int
)

// optimizeCmd submits selected blocks for optimization
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run cutting optimization over selected blocks",
	Long: `Build an optimization request from the imported record set and
submit it.

Blocks are addressed by identity: their mark, or Block-<n> for rows that
had none. --stock takes the parent block dimensions as W×H×L (a plain x
works too, e.g. 800x400x2000).`,
	Example: `  blockopt optimize --all --stock 500×500×2000
  blockopt optimize --select G14 --select G15 --stock 800x400x2000`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeStock, "stock", "", "parent block dimensions, W×H×L (required)")
	optimizeCmd.Flags().StringArrayVar(&optimizeSelect, "select", nil, "block identity to include (repeatable)")
	optimizeCmd.Flags().BoolVar(&optimizeAll, "all", false, "include every imported block")
	optimizeCmd.Flags().IntVar(&optimizeTopN, "top", 0, "requested result count (default from config)")
	_ = optimizeCmd.MarkFlagRequired("stock")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	records, err := block.LoadSet(blocksPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("no blocks imported; run 'blockopt import' first")
	}

	set := block.NewSet()
	set.Replace(records)

	switch {
	case optimizeAll:
		set.SelectAll()
	case len(optimizeSelect) > 0:
		for _, id := range optimizeSelect {
			if err := set.Select(id); err != nil {
				return fmt.Errorf("%w; imported identities: %s",
					err, strings.Join(set.Identities(), ", "))
			}
		}
	default:
		return errors.New("select at least one block with --select or --all")
	}

	topN := optimizeTopN
	if topN <= 0 {
		topN = cfg.TopN
	}

	request, err := optimize.BuildRequest(records, set.Selected(), optimizeStock, topN)
	if err != nil {
		if errors.Is(err, optimize.ErrInvalidStockDescriptor) {
			return fmt.Errorf("%w (expected something like %s)",
				err, strings.Join(cfg.StockPresets, " or "))
		}
		return err
	}

	fmt.Printf("Submitting %d blocks against %d×%d×%d stock...\n",
		len(request.Parts),
		request.StockDimensions.Width,
		request.StockDimensions.Height,
		request.StockDimensions.Length)

	result, err := apiClient.Optimize(cmd.Context(), request)
	if err != nil {
		return err
	}
	if len(result.Configurations) == 0 {
		fmt.Println("The service returned no configurations.")
		return nil
	}

	for _, c := range result.Configurations {
		fmt.Printf("\n#%d  %s\n", c.Rank, c.Description)
		fmt.Printf("    efficiency %.1f%%  waste %.1f%%  parts %d",
			c.Efficiency, c.Waste, c.TotalParts)
		if c.PrimaryPart != "" {
			fmt.Printf("  primary %s", c.PrimaryPart)
		}
		fmt.Println()
		if len(c.MergingPlaneOrder) > 0 {
			fmt.Printf("    merge order: %s\n", strings.Join(c.MergingPlaneOrder, " → "))
		}
		if c.VisualizationFile != "" {
			fmt.Printf("    visualization: blockopt viz %s\n", c.VisualizationFile)
		}
	}
	return nil
}
