package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/wordrecall/internal/utils"
	"github.com/bastiangx/wordrecall/pkg/config"
	"github.com/bastiangx/wordrecall/pkg/history"
	"github.com/bastiangx/wordrecall/pkg/metrics"
	"github.com/bastiangx/wordrecall/pkg/suggest"
	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC for a provider
type Server struct {
	provider *suggest.Provider
	store    history.Store
	metrics  *metrics.Metrics

	reader io.Reader
	writer *bufio.Writer
	enc    *msgpack.Encoder

	mu            sync.RWMutex
	limits        config.ServerConfig
	autosaveEvery int

	// unsaved counts records since the last save; only touched by Run
	unsaved int
}

// Option configures a Server
type Option func(*Server)

// WithIO replaces stdin and stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(s *Server) {
		s.reader = r
		s.writer = bufio.NewWriter(w)
	}
}

// WithStore enables the save action, autosave and the final save on exit.
func WithStore(store history.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithMetrics records request counts and timings.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a server over provider using stdin/stdout for IPC.
// cfg supplies prefix bounds, the limit cap and the autosave interval.
func NewServer(provider *suggest.Provider, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		provider: provider,
		reader:   os.Stdin,
		writer:   bufio.NewWriter(os.Stdout),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.enc = msgpack.NewEncoder(s.writer)
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig applies a reloaded config to the server and its provider.
func (s *Server) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s.mu.Lock()
	s.limits = cfg.Server
	s.autosaveEvery = cfg.History.AutosaveEvery
	s.mu.Unlock()

	s.provider.SetStyle(cfg.History.Style)
	s.provider.SetLimit(cfg.History.Limit)
	log.Debug("Server config applied",
		"style", cfg.History.Style,
		"limit", cfg.History.Limit,
		"maxLimit", cfg.Server.MaxLimit,
		"autosave", cfg.History.AutosaveEvery)
}

func (s *Server) settings() (config.ServerConfig, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limits, s.autosaveEvery
}

// Run answers requests until the input ends or ctx is done. Unsaved records
// are written to the store before it returns.
func (s *Server) Run(ctx context.Context) error {
	log.Debug("Starting Server.")

	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	requests := make(chan msgpack.RawMessage)
	readErr := make(chan error, 1)
	go s.read(ctx, requests, readErr)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case raw, ok := <-requests:
			if !ok {
				runErr = <-readErr
				break loop
			}
			if err := s.handleRequest(ctx, raw); err != nil {
				runErr = err
				break loop
			}
		}
	}

	if err := s.flushHistory(context.WithoutCancel(ctx)); err != nil {
		log.Errorf("Final history save failed: %v", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// read decodes whole msgpack values so a malformed request does not break
// framing for the next one.
func (s *Server) read(ctx context.Context, out chan<- msgpack.RawMessage, errc chan<- error) {
	defer close(out)
	dec := msgpack.NewDecoder(bufio.NewReader(s.reader))
	for {
		raw, err := dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				errc <- nil
			} else {
				log.Errorf("Reading request stream: %v", err)
				errc <- fmt.Errorf("failed to read request: %w", err)
			}
			return
		}
		select {
		case out <- raw:
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
}

// handleRequest returns an error only when the response cannot be written.
func (s *Server) handleRequest(ctx context.Context, raw msgpack.RawMessage) error {
	start := time.Now()

	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Debugf("Malformed request: %v", err)
		s.metrics.ObserveRequest("invalid", "error", time.Since(start))
		return s.sendError("", "malformed request", CodeBadRequest)
	}

	action := req.Action
	if action == "" {
		action = ActionComplete
	}

	var resp any
	switch action {
	case ActionComplete:
		resp = s.handleComplete(req, start)
	case ActionRecord:
		resp = s.handleRecord(ctx, req)
	case ActionStyle:
		resp = s.handleStyle(req)
	case ActionSave:
		resp = s.handleSave(ctx, req)
	case ActionStats:
		resp = StatusResponse{ID: req.ID, Status: "ok", Stats: s.provider.Stats()}
	case ActionHealth:
		resp = StatusResponse{ID: req.ID, Status: "ok"}
	default:
		action = "unknown"
		resp = CompletionError{ID: req.ID, Error: fmt.Sprintf("unknown action: %s", req.Action), Code: CodeBadRequest}
	}

	outcome := "ok"
	if _, failed := resp.(CompletionError); failed {
		outcome = "error"
	}
	s.metrics.ObserveRequest(action, outcome, time.Since(start))
	return s.send(resp)
}

func (s *Server) handleComplete(req Request, start time.Time) any {
	limits, _ := s.settings()

	length := utf8.RuneCountInString(req.Prefix)
	if length < limits.MinPrefix {
		log.Debug("Prefix is too short in request", "prefix", req.Prefix)
		return CompletionError{ID: req.ID, Error: fmt.Sprintf("prefix must be at least %d characters", limits.MinPrefix), Code: CodeBadRequest}
	}
	if limits.MaxPrefix > 0 && length > limits.MaxPrefix {
		log.Debug("Prefix is too long in request", "length", length)
		return CompletionError{ID: req.ID, Error: fmt.Sprintf("prefix exceeds maximum length of %d characters", limits.MaxPrefix), Code: CodeBadRequest}
	}

	style := s.provider.Style()
	if req.Style != "" {
		parsed, err := trie.ParseStyle(req.Style)
		if err != nil {
			return CompletionError{ID: req.ID, Error: err.Error(), Code: CodeBadRequest}
		}
		style = parsed
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.provider.Limit()
	}
	if limits.MaxLimit > 0 && (limit <= 0 || limit > limits.MaxLimit) {
		limit = limits.MaxLimit
	}

	entries := s.provider.Complete(req.Prefix, style, limit)
	ranks := utils.CreateRankList(len(entries))
	suggestions := make([]CompletionSuggestion, len(entries))
	for i, e := range entries {
		suggestions[i] = CompletionSuggestion{Word: e.Word, Rank: ranks[i], Frequency: e.Frequency}
	}

	return CompletionResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   time.Since(start).Microseconds(),
	}
}

func (s *Server) handleRecord(ctx context.Context, req Request) any {
	if err := s.provider.RecordSubmission(req.Text); err != nil {
		code := CodeInternal
		if errors.Is(err, trie.ErrInvalidInput) {
			code = CodeBadRequest
		}
		return CompletionError{ID: req.ID, Error: err.Error(), Code: code}
	}

	s.unsaved++
	if _, every := s.settings(); every > 0 && s.unsaved >= every {
		if err := s.flushHistory(ctx); err != nil {
			log.Warnf("Autosave failed: %v", err)
		}
	}
	return StatusResponse{ID: req.ID, Status: "ok"}
}

func (s *Server) handleStyle(req Request) any {
	if req.Style != "" {
		style, err := trie.ParseStyle(req.Style)
		if err != nil {
			return CompletionError{ID: req.ID, Error: err.Error(), Code: CodeBadRequest}
		}
		s.provider.SetStyle(style)
	}
	return StatusResponse{ID: req.ID, Status: "ok", Style: s.provider.Style().String()}
}

func (s *Server) handleSave(ctx context.Context, req Request) any {
	if s.store == nil {
		return CompletionError{ID: req.ID, Error: "no history store configured", Code: CodeUnavailable}
	}
	s.unsaved++ // force a write even without new records
	if err := s.flushHistory(ctx); err != nil {
		return CompletionError{ID: req.ID, Error: err.Error(), Code: CodeInternal}
	}
	return StatusResponse{ID: req.ID, Status: "ok"}
}

// flushHistory persists the provider if records are pending.
func (s *Server) flushHistory(ctx context.Context) error {
	if s.store == nil || s.unsaved == 0 {
		return nil
	}
	if err := s.provider.Persist(ctx, s.store); err != nil {
		return err
	}
	log.Debugf("History saved after %d changes", s.unsaved)
	s.unsaved = 0
	return nil
}

// send writes one response and flushes it to the client.
func (s *Server) send(response any) error {
	if err := s.enc.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) error {
	return s.send(CompletionError{ID: id, Error: message, Code: code})
}
