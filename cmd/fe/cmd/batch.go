// File: cmd/fe/cmd/batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-fe/client"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Send every command of a JSON array file, '-' reads stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, err := readCommands(cmd.InOrStdin(), args[0])
		if err != nil {
			printError("batch", err)
			return err
		}
		return run(cmd, cmds)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

// readCommands decodes a JSON array of {"id","method","params"} objects.
func readCommands(stdin io.Reader, path string) ([]client.Command, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var cmds []client.Command
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, c := range cmds {
		if c.Method == "" {
			return nil, fmt.Errorf("command %d has no method", i)
		}
	}
	return cmds, nil
}
