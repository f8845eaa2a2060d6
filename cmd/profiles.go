package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoclean-cli/internal/pipeline"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List and inspect cleaning profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in profiles and those in profiles_dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := currentConfig().ProfilesDir
		w := cmd.OutOrStdout()
		for _, name := range pipeline.Names(dir) {
			p, err := pipeline.Resolve(name, dir)
			if err != nil {
				fmt.Fprintf(w, "%-12s ✗ %v\n", name, err)
				continue
			}
			fmt.Fprintf(w, "%-12s %s\n", name, p.Describe())
			if p.Description != "" {
				fmt.Fprintf(w, "%-12s %s\n", "", p.Description)
			}
		}
		return nil
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <name|file.yaml>",
	Short: "Print a profile as YAML (a starting point for custom profiles)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.Resolve(args[0], currentConfig().ProfilesDir)
		if err != nil {
			return err
		}
		b, err := p.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
}
