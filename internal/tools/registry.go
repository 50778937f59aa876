// Package tools exposes the assistant's tool surface over JSON-RPC. Each tool
// is a named operation with a JSON schema for its parameters; the registry
// dispatches calls, times them, and keeps a bounded execution log.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrToolNotFound distinguishes a bad tool name from execution failure.
var ErrToolNotFound = errors.New("tool not found")

// ErrInvalidParams wraps parameter validation failures.
var ErrInvalidParams = errors.New("invalid params")

const defaultMaxLogs = 1000

// Tool is a registered operation.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(ctx context.Context, params json.RawMessage) (interface{}, error)
}

// Descriptor is the externally visible shape of a tool.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ExecutionLog records one tool call for audit.
type ExecutionLog struct {
	ID        string        `json:"id"`
	Tool      string        `json:"tool"`
	Status    string        `json:"status"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Registry holds tools in registration order and dispatches calls.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*Tool
	order   []string
	logs    []ExecutionLog
	maxLogs int
	log     zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		tools:   make(map[string]*Tool),
		maxLogs: defaultMaxLogs,
		log:     log,
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool already registered: %s", t.Name)
	}
	r.tools[t.Name] = &t
	r.order = append(r.order, t.Name)
	return nil
}

// List returns descriptors in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Descriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}

// Call dispatches to the named tool, recording duration and outcome.
func (r *Registry) Call(ctx context.Context, name string, params json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	start := time.Now()
	result, err := t.Handler(ctx, params)
	duration := time.Since(start)

	entry := ExecutionLog{
		ID:        uuid.New().String(),
		Tool:      name,
		Status:    "success",
		Duration:  duration,
		Timestamp: start,
	}
	if err != nil {
		entry.Status = "failed"
		entry.Error = err.Error()
	}
	r.recordExecution(entry)

	evt := r.log.Info()
	if err != nil {
		evt = r.log.Warn().Err(err)
	}
	evt.Str("tool", name).Dur("duration", duration).Str("status", entry.Status).Msg("tool call")

	return result, err
}

func (r *Registry) recordExecution(entry ExecutionLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, entry)
	if len(r.logs) > r.maxLogs {
		r.logs = r.logs[len(r.logs)-r.maxLogs:]
	}
}

// ExecutionLogs returns recorded calls, optionally filtered by tool name.
func (r *Registry) ExecutionLogs(tool string) []ExecutionLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ExecutionLog
	for _, l := range r.logs {
		if tool == "" || l.Tool == tool {
			out = append(out, l)
		}
	}
	return out
}
