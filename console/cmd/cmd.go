// Package cmd implements the operator command framework the admin console
// dispatches through: a small registry of named commands, each given the
// tokenised argument list and the running warehouse to act on. It is a
// from-scratch, much smaller cousin of a full command-parameter framework,
// scoped to this domain's handful of operator verbs rather than a generic
// typed-parameter/autocomplete system.
package cmd

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hivesim/warehouse"
)

// Output collects the lines a command produces, mirroring the
// messages-vs-errors split of a structured command result so the console
// can render or log them differently.
type Output struct {
	messages []string
	errors   []string
}

// Print appends an informational line.
func (o *Output) Print(msg string) { o.messages = append(o.messages, msg) }

// Printf appends a formatted informational line.
func (o *Output) Printf(format string, args ...any) { o.Print(fmt.Sprintf(format, args...)) }

// Error appends an error line.
func (o *Output) Error(msg string) { o.errors = append(o.errors, msg) }

// Errorf appends a formatted error line.
func (o *Output) Errorf(format string, args ...any) { o.Error(fmt.Sprintf(format, args...)) }

// Messages returns every informational line recorded so far.
func (o *Output) Messages() []string { return o.messages }

// Errors returns every error line recorded so far.
func (o *Output) Errors() []string { return o.errors }

// Source identifies who issued a command, for logging/attribution.
type Source interface {
	Name() string
}

// Handler runs a command against a running warehouse, writing its result to
// out.
type Handler func(src Source, w *warehouse.Warehouse, args []string, out *Output)

// Command is one named operator verb.
type Command struct {
	Name  string
	Usage string
	Run   Handler
}

var (
	mu       sync.Mutex
	registry = map[string]Command{}
)

// Register adds a command to the global registry. The built-in commands
// call it from this package's init in builtin.go.
func Register(c Command) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(c.Name)] = c
}

// ByName looks up a registered command by name.
func ByName(name string) (Command, bool) {
	mu.Lock()
	defer mu.Unlock()
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// All returns every registered command, sorted by name.
func All() []Command {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Command, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExecuteLine tokenises line and runs the matching command, synchronously,
// against w. A line naming an unknown command produces a single error line
// in the returned Output rather than a Go error, since command dispatch
// failures are operator-facing, not programmer-facing.
func ExecuteLine(src Source, line string, w *warehouse.Warehouse) *Output {
	out := &Output{}
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		return out
	}
	c, ok := ByName(fields[0])
	if !ok {
		out.Errorf("unknown command: %s", fields[0])
		return out
	}
	c.Run(src, w, fields[1:], out)
	return out
}
