/*
Package server implements msgpack IPC over a history provider.

Clients write a stream of msgpack maps to the server's input (stdin by
default) and read one response per request from its output. Log output goes
to stderr so stdout carries nothing but responses.

# IPC

Each request carries an ID that is echoed back, and an action:

	{"id": "r1", "a": "complete", "p": "pro", "l": 5}
	{"id": "r2", "a": "record", "t": "program"}
	{"id": "r3", "a": "style", "s": "frequency"}
	{"id": "r4", "a": "save"}
	{"id": "r5", "a": "stats"}
	{"id": "r6", "a": "health"}

An empty action is a completion. Completions answer with ranked words and
the time taken in microseconds:

	{"id": "r1", "s": [{"w": "program", "r": 1, "f": 3}], "c": 1, "t": 12}

Other actions answer with a status, and failures with an error and code:

	{"id": "r3", "status": "ok", "style": "frequency"}
	{"id": "r2", "e": "invalid input", "c": 400}

When the server starts it writes {"status": "ready"} before reading.
*/
package server

// Request actions.
const (
	ActionComplete = "complete"
	ActionRecord   = "record"
	ActionStyle    = "style"
	ActionSave     = "save"
	ActionStats    = "stats"
	ActionHealth   = "health"
)

// Error codes carried in CompletionError.Code.
const (
	CodeBadRequest  = 400
	CodeInternal    = 500
	CodeUnavailable = 503
)

// Request is a single client message
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"a,omitempty"`
	Prefix string `msgpack:"p,omitempty"`
	Text   string `msgpack:"t,omitempty"` // for "record"
	Limit  int    `msgpack:"l,omitempty"`
	Style  string `msgpack:"s,omitempty"` // for "complete" and "style"
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word      string `msgpack:"w"`
	Rank      uint16 `msgpack:"r"`
	Frequency int    `msgpack:"f"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// StatusResponse answers every non completion action
type StatusResponse struct {
	ID     string         `msgpack:"id,omitempty"`
	Status string         `msgpack:"status"`
	Style  string         `msgpack:"style,omitempty"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// CompletionError holds basic error information for failed requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
