// Package securitylog keeps a bounded audit trail of security relevant
// events, persisted as one JSON blob.
package securitylog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/selimozcann/LinkGuard/internal/kvstore"
	"github.com/selimozcann/LinkGuard/internal/logging"
)

const (
	// MaxEvents is the ring buffer capacity; the oldest event goes first.
	MaxEvents = 1000

	storeKey = "linkguard.security_events"
)

// EventType is the closed set of audit events.
type EventType string

const (
	EventLinkAllowed   EventType = "LINK_ALLOWED"
	EventLinkWarned    EventType = "LINK_WARNED"
	EventLinkBlocked   EventType = "LINK_BLOCKED"
	EventThreatFound   EventType = "THREAT_DETECTED"
	EventTrustGranted  EventType = "TRUST_GRANTED"
	EventTrustRevoked  EventType = "TRUST_REVOKED"
	EventPINFailed     EventType = "PIN_FAILED"
	EventPINSucceeded  EventType = "PIN_SUCCEEDED"
	EventPINLockout    EventType = "PIN_LOCKOUT"
	EventPINUnlocked   EventType = "PIN_UNLOCKED"
	EventStorageFailed EventType = "STORAGE_FAILURE"
)

// EventTypes lists every event type.
var EventTypes = []EventType{
	EventLinkAllowed, EventLinkWarned, EventLinkBlocked, EventThreatFound,
	EventTrustGranted, EventTrustRevoked, EventPINFailed, EventPINSucceeded,
	EventPINLockout, EventPINUnlocked, EventStorageFailed,
}

// Severity of an event; derived from its type.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Severity derives the severity of t.
func (t EventType) Severity() Severity {
	switch t {
	case EventLinkBlocked, EventThreatFound, EventPINLockout, EventStorageFailed:
		return SeverityCritical
	case EventLinkWarned, EventTrustRevoked, EventPINFailed, EventPINUnlocked:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// ParseEventType accepts only known types.
func ParseEventType(s string) (EventType, bool) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ParseSeverity accepts only known severities.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return Severity(s), true
	}
	return "", false
}

type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Types       []EventType
	MinSeverity Severity
	Since       time.Time
	Limit       int
}

func (f Filter) match(e Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinSeverity != "" && e.Severity.rank() < f.MinSeverity.rank() {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Logger is safe for concurrent use. Persistence failures are logged and
// never stop the in-memory buffer.
type Logger struct {
	mu     sync.Mutex
	events []Event
	store  kvstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// New loads previously persisted events from store, which may be nil.
func New(store kvstore.Store, logger *slog.Logger) *Logger {
	l := &Logger{store: store, logger: logging.OrDefault(logger), now: time.Now}
	l.load()
	return l
}

// WithClock replaces the time source.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

func (l *Logger) load() {
	if l.store == nil {
		return
	}
	raw, ok, err := l.store.Get(storeKey)
	if err != nil {
		l.logger.Warn("security log load failed", "err", err)
		return
	}
	if !ok {
		return
	}
	var events []Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		l.logger.Warn("security log is corrupt, starting empty", "err", err)
		return
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	if len(events) > MaxEvents {
		events = events[len(events)-MaxEvents:]
	}
	l.events = events
}

func (l *Logger) persist() {
	if l.store == nil {
		return
	}
	raw, err := json.Marshal(l.events)
	if err == nil {
		err = l.store.Set(storeKey, string(raw))
	}
	if err != nil {
		l.logger.Warn("security log persist failed", "events", len(l.events), "err", err)
	}
}

// LogEvent appends an event and returns it.
func (l *Logger) LogEvent(t EventType, message string, details map[string]string) Event {
	e := Event{
		ID:       uuid.NewString(),
		Type:     t,
		Severity: t.Severity(),
		Message:  message,
		Details:  details,
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Timestamp = l.now().UTC()
	l.events = append(l.events, e)
	if over := len(l.events) - MaxEvents; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
	l.persist()
	l.logger.Debug("security event", "type", t, "severity", e.Severity, "msg", message)
	return e
}

// GetEvents returns the matching events, newest first.
func (l *Logger) GetEvents(f Filter) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []Event{}
	for i := len(l.events) - 1; i >= 0; i-- {
		if !f.match(l.events[i]) {
			continue
		}
		out = append(out, l.events[i])
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Len reports the number of buffered events.
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Clear drops every event, in memory and in the store.
func (l *Logger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
	if l.store == nil {
		return nil
	}
	if err := l.store.Remove(storeKey); err != nil {
		return fmt.Errorf("clear security log: %w", err)
	}
	return nil
}
