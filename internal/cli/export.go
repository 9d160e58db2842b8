package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export items as JSON or YAML",
		Long:  "Export every item, oldest first, in the format read by import.",
		Run:   runExport,
	}

	cmd.Flags().StringP("output", "o", "json", "Export format: json or yaml")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	items, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	switch output {
	case "json":
		printJSON(cmd.OutOrStdout(), items)
	case "yaml", "yml":
		b, err := yaml.Marshal(items)
		if err != nil {
			exitErr("export", err)
		}
		cmd.OutOrStdout().Write(b)
	default:
		exitErr("export", fmt.Errorf("unknown format %q (valid: json, yaml)", output))
	}
}
