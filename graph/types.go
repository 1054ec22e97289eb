package graph

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/flow/config"
	"github.com/tailored-agentic-units/flow/messaging"
)

// HandlerFactory builds the handler for one node from its settings.
type HandlerFactory func(settings map[string]any, logger *slog.Logger) (Handler, error)

// Factory builds a live node from its declaration.
type Factory func(cfg config.NodeConfig, sender Sender) (*FunctionNode, error)

var (
	types = map[string]HandlerFactory{
		"passthrough": newPassthrough,
		"sink":        newSink,
		"tag":         newTag,
	}
	typesMu sync.RWMutex
)

// RegisterType adds or replaces a named node type.
func RegisterType(name string, factory HandlerFactory) {
	typesMu.Lock()
	defer typesMu.Unlock()

	types[name] = factory
}

// GetType returns the handler factory registered under name.
func GetType(name string) (HandlerFactory, error) {
	typesMu.RLock()
	defer typesMu.RUnlock()

	factory, exists := types[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, name)
	}
	return factory, nil
}

// TypeNames lists registered node types in sorted order.
func TypeNames() []string {
	typesMu.RLock()
	defer typesMu.RUnlock()

	return slices.Sorted(maps.Keys(types))
}

// DefaultFactory builds FunctionNodes from the type table.
func DefaultFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(cfg config.NodeConfig, sender Sender) (*FunctionNode, error) {
		newHandler, err := GetType(cfg.Type)
		if err != nil {
			return nil, err
		}

		handler, err := newHandler(cfg.Settings, logger)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", cfg.ID, err)
		}

		return NewFunctionNode(cfg.ID, cfg.Type, sender, handler, logger), nil
	}
}

func newPassthrough(map[string]any, *slog.Logger) (Handler, error) {
	return func(ctx context.Context, msg *messaging.Message, emit EmitFunc) error {
		emit(ctx, messaging.Single(msg))
		return nil
	}, nil
}

func newSink(settings map[string]any, logger *slog.Logger) (Handler, error) {
	level := slog.LevelInfo
	if raw, ok := settings["level"].(string); ok {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid sink level %q: %w", raw, err)
		}
	}

	return func(ctx context.Context, msg *messaging.Message, _ EmitFunc) error {
		logger.Log(
			ctx,
			level,
			"sink received",
			slog.String("correlation_id", msg.ID),
			slog.String("message", msg.String()),
		)
		return nil
	}, nil
}

// newTag sets every setting as a payload field before re-emitting on port 0.
func newTag(settings map[string]any, _ *slog.Logger) (Handler, error) {
	fields := make(map[string]*structpb.Value, len(settings))
	for key, value := range settings {
		v, err := structpb.NewValue(value)
		if err != nil {
			return nil, fmt.Errorf("invalid tag field %q: %w", key, err)
		}
		fields[key] = v
	}

	return func(ctx context.Context, msg *messaging.Message, emit EmitFunc) error {
		for key, v := range fields {
			if err := msg.Set(key, v.AsInterface()); err != nil {
				return err
			}
		}
		emit(ctx, messaging.Single(msg))
		return nil
	}, nil
}
