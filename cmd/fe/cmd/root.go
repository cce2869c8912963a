// File: cmd/fe/cmd/root.go
// Package cmd holds the fe command line.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-fe/client"
	"github.com/momentics/hioload-fe/control"
)

var (
	cfgFile  string
	verbose  bool
	endpoint string
	port     int
	useTLS   bool
	auth     string
)

var rootCmd = &cobra.Command{
	Use:   "fe",
	Short: "Send JSON commands over a keep-alive connection",
	Long: `fe posts JSON commands to a command endpoint over one persistent
HTTP/1.1 connection, optionally TLS and deflate, and prints one JSON
line per reply.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.toml or .yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and a state dump on exit")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "endpoint host, overrides the config file")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "endpoint port, overrides the config file")
	rootCmd.PersistentFlags().BoolVar(&useTLS, "tls", false, "use TLS")
	rootCmd.PersistentFlags().StringVar(&auth, "auth", "", "X-Auth token, overrides the config file")
}

// loadConfig reads the config file as written, layers the flags that were
// set on top, and only then applies defaults, so a default port follows the
// final TLS setting.
func loadConfig(changed func(name string) bool) (*control.Config, error) {
	cfg := &control.Config{}
	if cfgFile != "" {
		loaded, err := control.ReadFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if changed("endpoint") {
		cfg.Endpoint = endpoint
	}
	if changed("port") {
		cfg.Port = port
	}
	if changed("tls") {
		cfg.TLS = useTLS
	}
	if changed("auth") {
		cfg.Auth = auth
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run builds a client from flags and config, executes cmds and prints the
// replies to the command's output.
func run(cmd *cobra.Command, cmds []client.Command) error {
	cfg, err := loadConfig(cmd.Flags().Changed)
	if err != nil {
		printError("config", err)
		return err
	}
	logger, err := control.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		printError("logger", err)
		return err
	}

	sig := control.NewSignal()
	stop := control.NotifyInterrupt(sig)
	defer stop()

	probes := control.NewDebugProbes()
	opts := []client.Option{
		client.WithLogger(logger),
		client.WithSignal(sig),
		client.WithProbes(probes),
	}
	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		opts = append(opts, client.WithRegisterer(reg))
	}
	c, err := client.New(cfg, opts...)
	if err != nil {
		printError("client", err)
		return err
	}
	defer func() { _ = c.Shutdown() }()

	replies, callErr := c.Call(cmds)
	if err := writeReplies(cmd.OutOrStdout(), replies); err != nil {
		return err
	}
	if verbose {
		dumpState(cmd.ErrOrStderr(), probes)
		if reg != nil {
			if err := dumpMetrics(cmd.ErrOrStderr(), reg); err != nil {
				printError("metrics", err)
			}
		}
	}
	if callErr != nil {
		printError("call", callErr)
	}
	return callErr
}

type replyLine struct {
	ID            string          `json:"id"`
	HTTPRequestID string          `json:"http_request_id,omitempty"`
	Result        json.RawMessage `json:"result"`
}

func writeReplies(w io.Writer, replies []client.Reply) error {
	enc := json.NewEncoder(w)
	for _, r := range replies {
		line := replyLine{ID: r.ID, HTTPRequestID: r.Result.HTTPRequestID, Result: r.Result.Payload}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

func dumpState(w io.Writer, probes *control.DebugProbes) {
	b, err := json.MarshalIndent(probes.DumpState(), "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(w, string(b))
}

// dumpMetrics writes every gathered family in the Prometheus text format.
func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
