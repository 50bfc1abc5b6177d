package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spinefetch/internal/manifest"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect merged manifests and save user overrides",
	}

	manifestCmd.AddCommand(newManifestShowCommand(ctx))
	manifestCmd.AddCommand(newManifestBrandsCommand(ctx))
	manifestCmd.AddCommand(newManifestSaveCommand(ctx))

	return manifestCmd
}

func newManifestShowCommand(ctx *commandContext) *cobra.Command {
	var brands bool
	var priority string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the vendor manifest merged with user overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.manifestEngine(priority)
			if err != nil {
				return err
			}
			tree := engine.Combined()
			if brands {
				tree = engine.BrandSkins()
			}
			return manifest.Encode(cmd.OutOrStdout(), tree)
		},
	}

	cmd.Flags().BoolVar(&brands, "brands", false, "Show the brand to skin map instead of asset paths")
	cmd.Flags().StringVar(&priority, "priority", "", "Override manifest.priority (vendor or user)")
	return cmd
}

func newManifestBrandsCommand(ctx *commandContext) *cobra.Command {
	var priority string

	cmd := &cobra.Command{
		Use:   "brands",
		Short: "List brand names, default brand first",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.manifestEngine(priority)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range engine.Brands() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&priority, "priority", "", "Override manifest.priority (vendor or user)")
	return cmd
}

func newManifestSaveCommand(ctx *commandContext) *cobra.Command {
	var file string
	var brands bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Merge a JSON file into the user manifest",
		Long: `Merge a JSON file into user_saves.json (or user_brands.json with --brands).

Keys that already exist in the user manifest with a different value are
conflicts. Conflicts are listed and nothing is written unless --overwrite is
given, in which case the new values replace the old ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(file) == "" {
				return errors.New("--file is required")
			}
			if _, err := os.Stat(file); err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			data, err := manifest.ReadFile(file)
			if err != nil {
				return err
			}

			engine, err := ctx.manifestEngine("")
			if err != nil {
				return err
			}
			target := manifest.UserSavesFile
			if brands {
				target = manifest.UserBrandsFile
			}

			conflicts, err := engine.SaveUser(cmd.Context(), target, data, overwrite)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(conflicts) > 0 {
				rows := make([][]string, 0, len(conflicts))
				for _, c := range conflicts {
					rows = append(rows, []string{string(c)})
				}
				fmt.Fprintln(out, renderTable([]string{"Conflicting key"}, rows, nil))
				return fmt.Errorf("%d conflicting keys in %s; rerun with --overwrite to replace them", len(conflicts), engine.Path(target))
			}
			fmt.Fprintf(out, "Saved %d top-level entries to %s (priority %s)\n", len(data), engine.Path(target), savePriority(engine, overwrite))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file to merge")
	cmd.Flags().BoolVar(&brands, "brands", false, "Merge into user_brands.json instead of user_saves.json")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace conflicting values instead of rejecting the save")
	return cmd
}

func savePriority(engine *manifest.Engine, overwrite bool) string {
	if overwrite {
		return manifest.PriorityUser.String()
	}
	return engine.Priority().String()
}
