package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// writeJSON prints v for scripts: two-space indent, one trailing newline.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s output: %w", cmd.Name(), err)
	}
	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}
