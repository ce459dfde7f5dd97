package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrCancelled is returned by CheckCancel once the active token has
// been cancelled; callers unwind to their nearest RunWithCancellationToken.
var ErrCancelled = errors.New("type evaluation cancelled")

// Token identifies one run_with_cancellation_token scope. Tagging each
// run with a uuid lets a driver log which scope a stray cancellation
// check fired under, the same traceability internal/module/loader.go
// gets from its loadStack trace.
type Token struct {
	id        uuid.UUID
	cancelled bool
}

// NewToken creates a fresh, live cancellation token.
func NewToken() *Token {
	return &Token{id: uuid.New()}
}

// ID returns the token's identity.
func (t *Token) ID() uuid.UUID { return t.id }

// Cancel marks the token cancelled; the next CheckCancel against it
// returns ErrCancelled.
func (t *Token) Cancel() { t.cancelled = true }

// Cancelled reports whether Cancel has been called.
func (t *Token) Cancelled() bool { return t.cancelled }

// Canceller holds the cache's currently-bound token, consulted by
// CheckCancel at every recursive evaluator step.
type Canceller struct {
	mu    sync.Mutex
	token *Token
}

// RunWithCancellationToken binds token for the duration of f; on
// return (including via f panicking with ErrCancelled-style unwinding
// handled by the caller), the previous binding is restored so scopes
// nest cleanly.
func (c *Canceller) RunWithCancellationToken(token *Token, f func() error) error {
	c.mu.Lock()
	prev := c.token
	c.token = token
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.token = prev
		c.mu.Unlock()
	}()

	return f()
}

// CheckCancel is polled at every node the evaluator visits (flow
// walks, call resolution, class building); it returns ErrCancelled
// once the bound token has been cancelled, nil otherwise.
func (c *Canceller) CheckCancel() error {
	c.mu.Lock()
	t := c.token
	c.mu.Unlock()
	if t != nil && t.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// WithCancellation runs f under a fresh speculative/incomplete-aware
// cancellation scope: if f returns ErrCancelled, every speculative and
// incomplete frame opened during the call is unwound before the error
// propagates, restoring the cache to its pre-call state. When
// DebugMode is set, the unwound scope is recorded against the token's
// id — the traceability internal/module/loader.go's loadStack trace
// gets from logging which load frame a cycle fired under.
func (c *Cache) WithCancellation(canceller *Canceller, token *Token, f func() error) error {
	specDepth := len(c.speculative)
	incDepth := c.incompleteDepth

	err := canceller.RunWithCancellationToken(token, f)
	if errors.Is(err, ErrCancelled) {
		if c.DebugMode {
			c.mu.Lock()
			c.trace = append(c.trace, fmt.Sprintf(
				"cancelled: token %s unwound %d speculative frame(s), %d incomplete frame(s)",
				token.ID(), len(c.speculative)-specDepth, c.incompleteDepth-incDepth))
			c.mu.Unlock()
		}
		for len(c.speculative) > specDepth {
			c.PopSpeculative()
		}
		for c.incompleteDepth > incDepth {
			c.PopIncomplete()
		}
	}
	return err
}
