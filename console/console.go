// Package console implements an interactive and scripted command-line front
// end for a running warehouse.Warehouse, backed by a go-prompt operator
// console.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/hivesim/warehouse"
	wcmd "github.com/hivesim/warehouse/console/cmd"
)

const (
	defaultPromptPrefix = "> "
	maxHistoryEntries    = 128
)

// Console reads operator commands from an io.Reader (os.Stdin by default)
// and executes them against a Warehouse.
type Console struct {
	wh      *warehouse.Warehouse
	log     *slog.Logger
	reader  io.Reader
	history []string
}

// New returns a Console bound to wh.
func New(wh *warehouse.Warehouse, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{wh: wh, log: log, reader: os.Stdin}
}

// WithReader sets a custom reader for the console input, for tests.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// Run consumes commands until ctx is cancelled or the reader hits EOF.
func (c *Console) Run(ctx context.Context) {
	if c.reader != os.Stdin {
		c.runScanner(ctx)
		return
	}
	c.runInteractive(ctx)
}

func (c *Console) runScanner(ctx context.Context) {
	scanner := bufio.NewScanner(c.reader)
	src := &consoleSource{}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				c.log.Error("console input error", "err", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.execute(line, src)
	}
}

func (c *Console) runInteractive(ctx context.Context) {
	src := &consoleSource{}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := prompt.Input(defaultPromptPrefix, func(doc prompt.Document) []prompt.Suggest {
			return c.complete(doc)
		},
			prompt.OptionTitle("Warehouse Console"),
			prompt.OptionHistory(c.history),
			prompt.OptionPrefix(defaultPromptPrefix),
			prompt.OptionCompletionOnDown(),
			prompt.OptionMaxSuggestion(12),
		)

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.execute(line, src)
	}
}

func (c *Console) execute(line string, src *consoleSource) {
	if !strings.HasPrefix(line, "/") {
		line = "/" + line
	}
	c.history = append(c.history, line)
	if len(c.history) > maxHistoryEntries {
		c.history = c.history[len(c.history)-maxHistoryEntries:]
	}

	done := c.wh.Exec(func(w *warehouse.Warehouse) {
		out := wcmd.ExecuteLine(src, line, w)
		for _, msg := range out.Messages() {
			c.log.Info(msg)
		}
		for _, msg := range out.Errors() {
			c.log.Error(msg)
		}
	})
	<-done
}

func (c *Console) complete(doc prompt.Document) []prompt.Suggest {
	word := strings.TrimPrefix(doc.GetWordBeforeCursor(), "/")
	suggestions := make([]prompt.Suggest, 0)
	for _, command := range wcmd.All() {
		suggestions = append(suggestions, prompt.Suggest{Text: command.Name, Description: command.Usage})
	}
	return prompt.FilterHasPrefix(suggestions, word, true)
}

type consoleSource struct{}

func (c *consoleSource) Name() string { return "Console" }
