package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tailored-agentic-units/flow/graph"
	"github.com/tailored-agentic-units/flow/messaging"
)

var stdout io.Writer = os.Stdout

// registerBuiltinNodeTypes adds node types that only make sense in a
// terminal session.
func registerBuiltinNodeTypes() {
	graph.RegisterType("print", newPrintHandler)
}

// newPrintHandler writes each message as one JSON line, with an optional
// "prefix" setting, then forwards it on port 0.
func newPrintHandler(settings map[string]any, _ *slog.Logger) (graph.Handler, error) {
	prefix := ""
	if raw, ok := settings["prefix"]; ok {
		s, isString := raw.(string)
		if !isString {
			return nil, fmt.Errorf("print prefix must be a string, got %T", raw)
		}
		prefix = s
	}

	return func(ctx context.Context, msg *messaging.Message, emit graph.EmitFunc) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(stdout, "%s%s\n", prefix, data); err != nil {
			return err
		}
		emit(ctx, messaging.Single(msg))
		return nil
	}, nil
}
