package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/lynkia-agent/internal/adapters/llm"
	objmemory "github.com/PabloGalante/lynkia-agent/internal/adapters/objectstore/memory"
	"github.com/PabloGalante/lynkia-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/lynkia-agent/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/lynkia-agent/internal/app/conversation"
	"github.com/PabloGalante/lynkia-agent/internal/app/executor"
	"github.com/PabloGalante/lynkia-agent/internal/app/fallback"
	"github.com/PabloGalante/lynkia-agent/internal/app/intent"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

var (
	processPhone      string
	processStorage    string
	processSQLitePath string
	processMock       bool
	processTimeout    time.Duration
)

var processCmd = &cobra.Command{
	Use:   "process <message> [message...]",
	Short: "Run messages through the full pipeline",
	Long: `Each argument is one message, handled in order against the same store.
With --storage sqlite the records survive between runs.

Example:
  lynkia-cli process --phone +33600000000 "RAC 149041830" "LISTE"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processPhone, "phone", "+33600000000", "Technician phone number")
	processCmd.Flags().StringVar(&processStorage, "storage", "memory", "Storage backend: memory or sqlite")
	processCmd.Flags().StringVar(&processSQLitePath, "sqlite-path", "data/lynkia.db", "SQLite database path")
	processCmd.Flags().BoolVar(&processMock, "mock-llm", false, "Answer ambiguous messages with the mock model")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 10*time.Second, "Per-action timeout")
}

func openStore(kind, path string) (domain.StorageGateway, func() error, error) {
	switch kind {
	case "memory":
		return memory.NewInterventionStore(), func() error { return nil }, nil
	case "sqlite":
		s, err := sqlite.NewStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage %q", kind)
	}
}

type processed struct {
	Message  string          `json:"message"`
	Source   string          `json:"source"`
	Response domain.Response `json:"response"`
	Reply    string          `json:"reply"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore(processStorage, processSQLitePath)
	if err != nil {
		return err
	}
	defer closeStore()

	exec := executor.New(store, objmemory.NewStore("memory://images"), nil, executor.Options{Timeout: processTimeout})

	var model domain.LanguageModelClassifier
	if processMock {
		model = llm.NewMockClassifier()
	}
	resolver := fallback.NewResolver(model, llm.SystemGrammar(), processTimeout)
	svc := conversation.NewService(intent.NewClassifier(), resolver, exec)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]processed, 0, len(args))
	for _, text := range args {
		out := svc.Process(ctx, conversation.ProcessInput{Phone: processPhone, Text: text})
		results = append(results, processed{Message: text, Source: out.Source, Response: out.Response, Reply: out.Reply})
	}

	if output != "text" {
		return encode(cmd.OutOrStdout(), results)
	}
	w := cmd.OutOrStdout()
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "> %s\n%s\n", r.Message, r.Reply)
	}
	return nil
}
