package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/kai/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import items from JSON or YAML",
		Long:  "Import items from a file or stdin. Expects the format produced by export; existing ids are skipped.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	cmd.Flags().Bool("yaml", false, "Input is YAML (implied by a .yaml/.yml file)")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	isYAML, _ := cmd.Flags().GetBool("yaml")

	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		ext := strings.ToLower(filepath.Ext(args[0]))
		isYAML = isYAML || ext == ".yaml" || ext == ".yml"
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	items, err := decodeItems(data, isYAML)
	if err != nil {
		exitErr("parse input", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), items)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d,"skipped":%d}`+"\n", imported, len(items)-imported)
}

func decodeItems(data []byte, isYAML bool) ([]model.Item, error) {
	var items []model.Item
	if isYAML {
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}
