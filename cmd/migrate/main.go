package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"workspace-state-engine/internal/migration"
)

// One-shot migration tool: reads a stored state blob in any supported
// schema, upgrades it to the current one, and writes the canonical JSON.
func main() {
	input := flag.String("input", "workspace_state.json", "path to the stored state blob")
	output := flag.String("output", "workspace_state.migrated.json", "path for the migrated state")
	pretty := flag.Bool("pretty", true, "indent the output JSON")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	raw, err := os.ReadFile(*input)
	if err != nil && !os.IsNotExist(err) {
		logger.Fatal("Failed to read input", zap.String("path", *input), zap.Error(err))
	}

	st, migrated, err := migration.Decode(raw)
	if err != nil {
		logger.Fatal("Stored state is unreadable", zap.String("path", *input), zap.Error(err))
	}

	var payload []byte
	if *pretty {
		payload, err = json.MarshalIndent(st, "", "  ")
	} else {
		payload, err = json.Marshal(st)
	}
	if err != nil {
		logger.Fatal("Failed to encode migrated state", zap.Error(err))
	}

	if err := os.WriteFile(*output, payload, 0o644); err != nil {
		logger.Fatal("Failed to write output", zap.String("path", *output), zap.Error(err))
	}

	logger.Info("Migration completed",
		zap.String("input", *input),
		zap.String("output", *output),
		zap.Bool("migrated", migrated),
		zap.Int("workspaces", len(st.Workspaces)),
		zap.Int("pages", len(st.Pages)),
	)
}
