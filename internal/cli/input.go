// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/wordrecall/internal/logger"
	"github.com/bastiangx/wordrecall/internal/utils"
	"github.com/bastiangx/wordrecall/pkg/history"
	"github.com/bastiangx/wordrecall/pkg/suggest"
	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var wordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))

const help = `commands:
  <prefix>         show suggestions for prefix
  +<text>          record text as a submission
  !<n>             pick suggestion n from the last list
  :style lex|freq  switch ordering
  :limit <n>       change the suggestion limit (0 = all)
  :save            write the history to disk
  :stats           show history counters
  :quit            exit`

// InputHandler reads lines from its input, records submissions and shows
// suggestions. It is the Picker for the provider it drives.
type InputHandler struct {
	provider *suggest.Provider
	store    history.Store
	in       io.Reader
	out      *log.Logger

	minPrefixLength int
	maxPrefixLength int

	last []string
}

// NewInputHandler handles initialization of the InputHandler with basic parameters.
// store may be nil, in which case :save reports an error.
func NewInputHandler(provider *suggest.Provider, store history.Store, in io.Reader, out io.Writer, minLength, maxLength int) *InputHandler {
	return &InputHandler{
		provider:        provider,
		store:           store,
		in:              in,
		out:             logger.NewWithConfig(out, "", log.InfoLevel, false, false, log.TextFormatter),
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
	}
}

// Start runs the input loop until the input ends, :quit is typed or ctx is
// done.
func (h *InputHandler) Start(ctx context.Context) error {
	h.out.Print("WordRecall CLI")
	h.out.Print("type a prefix and press Enter to see suggestions, :help for commands")

	scanner := bufio.NewScanner(h.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		h.out.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":q" {
			return nil
		}
		h.handleInput(ctx, line)
	}
}

// ShowCandidates prints candidates and remembers them for !n.
func (h *InputHandler) ShowCandidates(prefix string, candidates []string) {
	h.last = candidates
	if len(candidates) == 0 {
		h.out.Printf("No suggestions found for prefix: '%s'", prefix)
		return
	}

	h.out.Printf("Found %d suggestions for prefix '%s':", len(candidates), prefix)
	t := h.provider.Trie()
	for i, word := range candidates {
		freq, _ := t.Frequency(word)
		h.out.Printf("%2d. %-40s (freq: %8s)", i+1, wordStyle.Render(word), utils.FormatWithCommas(freq))
	}
}

func (h *InputHandler) handleInput(ctx context.Context, line string) {
	switch {
	case strings.HasPrefix(line, "+"):
		h.record(line[1:])
	case strings.HasPrefix(line, "!"):
		h.pick(line[1:])
	case strings.HasPrefix(line, ":"):
		h.command(ctx, strings.Fields(line[1:]))
	default:
		h.suggest(line)
	}
}

func (h *InputHandler) suggest(prefix string) {
	length := utf8.RuneCountInString(prefix)
	if length < h.minPrefixLength {
		log.Errorf("Prefix too short: %s", prefix)
		return
	}
	if h.maxPrefixLength > 0 && length > h.maxPrefixLength {
		log.Errorf("Prefix too long: %s", prefix)
		return
	}

	start := time.Now()
	h.provider.Refresh(prefix, h)
	log.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)
}

func (h *InputHandler) record(text string) {
	if err := h.provider.RecordSubmission(text); err != nil {
		if errors.Is(err, trie.ErrInvalidInput) {
			log.Error("Nothing to record")
			return
		}
		log.Errorf("Record failed: %v", err)
		return
	}
	h.out.Printf("recorded '%s'", strings.TrimSpace(text))
}

func (h *InputHandler) pick(arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(h.last) {
		log.Errorf("No suggestion %q in the last list", arg)
		return
	}
	word := h.last[n-1]
	if err := h.provider.Select(word); err != nil {
		log.Errorf("Select failed: %v", err)
		return
	}
	h.out.Printf("picked '%s'", word)
}

func (h *InputHandler) command(ctx context.Context, fields []string) {
	if len(fields) == 0 {
		h.out.Print(help)
		return
	}

	switch fields[0] {
	case "style":
		if len(fields) < 2 {
			h.out.Printf("style: %s", h.provider.Style())
			return
		}
		style, err := trie.ParseStyle(fields[1])
		if err != nil {
			log.Error(err)
			return
		}
		h.provider.SetStyle(style)
		h.out.Printf("style: %s", style)
	case "limit":
		if len(fields) < 2 {
			h.out.Printf("limit: %d", h.provider.Limit())
			return
		}
		limit, err := strconv.Atoi(fields[1])
		if err != nil || limit < 0 {
			log.Errorf("Invalid limit %q", fields[1])
			return
		}
		h.provider.SetLimit(limit)
		h.out.Printf("limit: %d", limit)
	case "save":
		if h.store == nil {
			log.Error("No history store configured")
			return
		}
		if err := h.provider.Persist(ctx, h.store); err != nil {
			log.Errorf("Save failed: %v", err)
			return
		}
		h.out.Print("history saved")
	case "stats":
		stats := h.provider.Stats()
		h.out.Print("history",
			"words", utils.FormatWithCommas(stats["words"]),
			"nodes", utils.FormatWithCommas(stats["nodes"]),
			"submissions", stats["submissions"],
			"rejected", stats["rejected"],
			"style", h.provider.Style())
	case "help", "h":
		h.out.Print(help)
	default:
		log.Errorf("Unknown command: %s", fields[0])
	}
}
