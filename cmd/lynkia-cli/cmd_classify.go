package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/lynkia-agent/internal/app/intent"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

var classifyMedia bool

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Show which rule claims a message",
	Long: `Runs the rule cascade only. Nothing is stored and no model is called;
messages no rule claims are reported as ambiguous.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyMedia, "media", false, "Treat the message as carrying an attachment")
}

type classification struct {
	Message   string         `json:"message"`
	Detector  string         `json:"detector,omitempty"`
	Ambiguous bool           `json:"ambiguous"`
	Action    domain.Action  `json:"action,omitempty"`
	Payload   domain.Payload `json:"payload,omitempty"`
}

func classifyText(c *intent.Classifier, text string, hasMedia bool) classification {
	out := c.Classify(text, hasMedia)
	return classification{
		Message:   text,
		Detector:  out.Detector,
		Ambiguous: out.Ambiguous,
		Action:    out.Action(),
		Payload:   out.Payload,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	res := classifyText(intent.NewClassifier(), strings.Join(args, " "), classifyMedia)

	if output != "text" {
		return encode(cmd.OutOrStdout(), res)
	}

	w := cmd.OutOrStdout()
	if res.Ambiguous {
		fmt.Fprintln(w, "ambiguous: no rule matched, the language model would decide")
		return nil
	}
	fmt.Fprintf(w, "%s (rule: %s)\n", res.Action, res.Detector)
	fmt.Fprintf(w, "%+v\n", res.Payload)
	return nil
}
