// Package main writes the JSON schema of the renderer wire protocol: the
// snapshot the server pushes and the messages a renderer may send.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/network"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema (stdout when empty)")
	flag.Parse()

	data, err := json.MarshalIndent(buildSchema(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal schema: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	if outPath == "" {
		os.Stdout.Write(data)
		return
	}
	if err := writeSchema(outPath, data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	snapshot := reflector.Reflect(new(engine.Snapshot))
	snapshot.Version = ""
	snapshot.Title = "Snapshot"
	snapshot.Description = "One frame of a shift, pushed in every \"snapshot\" message."

	client := reflector.Reflect(new(network.ClientMessage))
	client.Version = ""
	client.Title = "Client Message"
	client.Description = "Held keys (\"input\") or one command (\"command\") sent by a renderer."

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Last Shift Wire Protocol",
		Description: "Messages exchanged between the shift server and its renderers.",
		OneOf:       []*jsonschema.Schema{snapshot, client},
	}
}

func writeSchema(outPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
