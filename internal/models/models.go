package models

import (
	"encoding/json"
	"fmt"
)

// Strategy tags which matching tier produced a tracking code.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyContextual
	StrategyFallback
	StrategyFuzzy
)

func (s Strategy) String() string {
	switch s {
	case StrategyContextual:
		return "contextual"
	case StrategyFallback:
		return "fallback"
	case StrategyFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match is the outcome of the code matcher. Code is empty when Strategy is StrategyNone.
type Match struct {
	Code     string
	Strategy Strategy
}

// Found reports whether a code was matched.
func (m Match) Found() bool {
	return m.Strategy != StrategyNone && m.Code != ""
}

// SourceDocument is one uploaded file staged in the upload store.
type SourceDocument struct {
	Key      string `json:"key"`      // storage key of the raw bytes
	Filename string `json:"filename"` // original client filename
}

// Batch is one submission processed under a single identifier.
type Batch struct {
	ID        string
	Documents []SourceDocument
}

// ProcessedItem is a document whose code was found, with its batch-unique filename.
type ProcessedItem struct {
	Source   SourceDocument
	Filename string
	Code     string
	Strategy Strategy
}

// FailureKind classifies why a document could not be renamed.
type FailureKind string

const (
	FailureIllegible    FailureKind = "illegible"
	FailureCodeNotFound FailureKind = "code_not_found"
)

// FailedItem records a per-document failure.
type FailedItem struct {
	Filename string      `json:"filename"`
	Kind     FailureKind `json:"kind"`
	Chars    int         `json:"chars"`
	Reason   string      `json:"reason"`
}

// NewFailedItem builds a FailedItem with its human readable reason.
func NewFailedItem(filename string, kind FailureKind, chars int) FailedItem {
	var reason string
	switch kind {
	case FailureIllegible:
		reason = fmt.Sprintf("image or illegible text (extracted: %d chars)", chars)
	default:
		reason = fmt.Sprintf("code not found (text: %d chars)", chars)
	}
	return FailedItem{Filename: filename, Kind: kind, Chars: chars, Reason: reason}
}

// BatchResult is the accumulated outcome of one batch.
//
// Processed: matched documents in submission order.
// Failed:    failed documents in submission order.
// Artifact:  output store key of the packaged result, empty when nothing was packaged.
type BatchResult struct {
	Processed []ProcessedItem
	Failed    []FailedItem
	Artifact  string
}

// EventType is the kind of a progress event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is the message pushed to progress subscribers.
type Event struct {
	Type        EventType    `json:"type"`
	Message     string       `json:"message,omitempty"`
	URL         string       `json:"url,omitempty"`
	FailedFiles []FailedItem `json:"failedFiles,omitempty"`
}

func ProgressEvent(message string) Event {
	return Event{Type: EventProgress, Message: message}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

// CompleteEvent always carries a failed list, empty when every document matched.
func CompleteEvent(url string, failed []FailedItem) Event {
	if failed == nil {
		failed = []FailedItem{}
	}
	return Event{Type: EventComplete, URL: url, FailedFiles: failed}
}

// MarshalJSON always writes "url" and "failedFiles" for complete events;
// other events omit them when empty.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	if e.Type != EventComplete {
		return json.Marshal(plain(e))
	}
	failed := e.FailedFiles
	if failed == nil {
		failed = []FailedItem{}
	}
	return json.Marshal(struct {
		Type        EventType    `json:"type"`
		Message     string       `json:"message,omitempty"`
		URL         string       `json:"url"`
		FailedFiles []FailedItem `json:"failedFiles"`
	}{e.Type, e.Message, e.URL, failed})
}

// Terminal reports whether no further events follow for the batch.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
