// Package ratelimit locks PIN entry after repeated failures. State is a
// single JSON blob in a key-value store; when that state cannot be read or
// written the limiter fails closed.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/selimozcann/LinkGuard/internal/kvstore"
	"github.com/selimozcann/LinkGuard/internal/logging"
	"github.com/selimozcann/LinkGuard/internal/securitylog"
)

const (
	DefaultMaxAttempts = 5
	DefaultLockout     = 15 * time.Minute

	storeKey = "linkguard.pin_rate_limit"
)

// State is the persisted counter.
type State struct {
	FailedAttempts int        `json:"failed_attempts"`
	LockoutEndsAt  *time.Time `json:"lockout_ends_at,omitempty"`
}

// Result tells the caller whether a PIN attempt may be made.
type Result struct {
	Allowed           bool       `json:"allowed"`
	RemainingAttempts int        `json:"remaining_attempts"`
	LockoutEndsAt     *time.Time `json:"lockout_ends_at,omitempty"`
	WaitTimeMs        int64      `json:"wait_time_ms,omitempty"`
}

type Limiter struct {
	MaxAttempts int
	Lockout     time.Duration

	mu     sync.Mutex
	store  kvstore.Store
	events *securitylog.Logger
	logger *slog.Logger
	now    func() time.Time
}

// New returns a limiter over store. A nil store keeps state in memory; a nil
// events logger disables auditing.
func New(store kvstore.Store, events *securitylog.Logger, logger *slog.Logger) *Limiter {
	if store == nil {
		store = kvstore.NewMemory()
	}
	return &Limiter{
		MaxAttempts: DefaultMaxAttempts,
		Lockout:     DefaultLockout,
		store:       store,
		events:      events,
		logger:      logging.OrDefault(logger),
		now:         time.Now,
	}
}

// WithClock replaces the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) load() (State, error) {
	raw, ok, err := l.store.Get(storeKey)
	if err != nil {
		return State{}, fmt.Errorf("read rate limit state: %w", err)
	}
	if !ok {
		return State{}, nil
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return State{}, fmt.Errorf("decode rate limit state: %w", err)
	}
	return st, nil
}

func (l *Limiter) save(st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode rate limit state: %w", err)
	}
	if err := l.store.Set(storeKey, string(raw)); err != nil {
		return fmt.Errorf("write rate limit state: %w", err)
	}
	return nil
}

func (l *Limiter) closed(op string, err error) Result {
	l.logger.Error("rate limiter storage failure, denying attempt", "op", op, "err", err)
	l.audit(securitylog.EventStorageFailed, "PIN rate limit state unavailable", map[string]string{"op": op, "error": err.Error()})
	return Result{Allowed: false}
}

func (l *Limiter) audit(t securitylog.EventType, msg string, details map[string]string) {
	if l.events != nil {
		l.events.LogEvent(t, msg, details)
	}
}

func (l *Limiter) result(st State, now time.Time) Result {
	if st.LockoutEndsAt != nil && now.Before(*st.LockoutEndsAt) {
		end := *st.LockoutEndsAt
		return Result{Allowed: false, LockoutEndsAt: &end, WaitTimeMs: end.Sub(now).Milliseconds()}
	}
	return Result{Allowed: true, RemainingAttempts: max(l.MaxAttempts-st.FailedAttempts, 0)}
}

// current loads the state and clears a lockout that has run out.
func (l *Limiter) current(now time.Time) (State, error) {
	st, err := l.load()
	if err != nil {
		return State{}, err
	}
	if st.LockoutEndsAt == nil || now.Before(*st.LockoutEndsAt) {
		return st, nil
	}
	st = State{}
	if err := l.save(st); err != nil {
		return State{}, err
	}
	l.audit(securitylog.EventPINUnlocked, "PIN lockout expired", nil)
	return st, nil
}

// CheckRateLimit reports whether an attempt may be made now.
func (l *Limiter) CheckRateLimit() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	st, err := l.current(now)
	if err != nil {
		return l.closed("check", err)
	}
	return l.result(st, now)
}

// RecordFailedAttempt counts a wrong PIN. Reaching MaxAttempts starts the
// lockout. Failures during an active lockout do not extend it.
func (l *Limiter) RecordFailedAttempt() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	st, err := l.current(now)
	if err != nil {
		return l.closed("record_failure", err)
	}
	if res := l.result(st, now); !res.Allowed {
		return res
	}

	st.FailedAttempts++
	locked := st.FailedAttempts >= l.MaxAttempts
	if locked {
		end := now.Add(l.Lockout)
		st.LockoutEndsAt = &end
	}
	if err := l.save(st); err != nil {
		return l.closed("record_failure", err)
	}
	if locked {
		l.logger.Warn("PIN locked", "attempts", st.FailedAttempts, "until", st.LockoutEndsAt)
		l.audit(securitylog.EventPINLockout, "PIN entry locked after repeated failures", map[string]string{
			"attempts":        strconv.Itoa(st.FailedAttempts),
			"lockout_ends_at": st.LockoutEndsAt.UTC().Format(time.RFC3339),
		})
	} else {
		l.audit(securitylog.EventPINFailed, "Wrong PIN entered", map[string]string{"attempts": strconv.Itoa(st.FailedAttempts)})
	}
	return l.result(st, now)
}

// RecordSuccessfulAttempt resets the counter. It has no effect while a
// lockout is active.
func (l *Limiter) RecordSuccessfulAttempt() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	st, err := l.current(now)
	if err != nil {
		return l.closed("record_success", err)
	}
	if res := l.result(st, now); !res.Allowed {
		return res
	}
	if err := l.save(State{}); err != nil {
		return l.closed("record_success", err)
	}
	l.audit(securitylog.EventPINSucceeded, "PIN accepted", nil)
	return l.result(State{}, now)
}

// ForceUnlock clears the counter and any lockout.
func (l *Limiter) ForceUnlock() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Remove(storeKey); err != nil {
		return l.closed("force_unlock", fmt.Errorf("remove rate limit state: %w", err))
	}
	l.logger.Info("PIN lockout cleared")
	l.audit(securitylog.EventPINUnlocked, "PIN lockout cleared manually", nil)
	return l.result(State{}, l.now())
}
