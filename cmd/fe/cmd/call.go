// File: cmd/fe/cmd/call.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-fe/client"
)

var paramsHex string

var callCmd = &cobra.Command{
	Use:   "call <method> [params-json]",
	Short: "Send a single command",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildCommand(args, paramsHex)
		if err != nil {
			return err
		}
		return run(cmd, []client.Command{c})
	},
}

func init() {
	callCmd.Flags().StringVar(&paramsHex, "params-hex", "", "params as hex-encoded JSON, optional 0x prefix")
	rootCmd.AddCommand(callCmd)
}

// buildCommand takes params from the second argument or from hexParams,
// never both.
func buildCommand(args []string, hexParams string) (client.Command, error) {
	c := client.Command{Method: args[0]}
	var raw []byte
	switch {
	case len(args) == 2 && hexParams != "":
		return c, errors.New("params given both as argument and --params-hex")
	case len(args) == 2:
		raw = []byte(args[1])
	case hexParams != "":
		b, err := client.HexToBytes(hexParams)
		if err != nil {
			return c, fmt.Errorf("--params-hex: %w", err)
		}
		raw = b
	default:
		return c, nil
	}
	if !json.Valid(raw) {
		return c, fmt.Errorf("params are not valid JSON: %s", raw)
	}
	c.Params = json.RawMessage(raw)
	return c, nil
}
