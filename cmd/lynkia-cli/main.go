// Command lynkia-cli runs the message pipeline from a terminal, without
// Twilio or the HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/lynkia-agent/internal/observability"
)

var (
	output  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lynkia-cli",
	Short: "Classify and process technician messages locally",
	Long: `lynkia-cli feeds WhatsApp-style messages through the rule cascade,
the language-model fallback and the action executor, and prints what the
technician would receive.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		observability.SetDebug(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(processCmd)
}

// encode writes v as JSON or YAML. YAML goes through the JSON form so both
// outputs share the json field names.
func encode(w io.Writer, v any) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
