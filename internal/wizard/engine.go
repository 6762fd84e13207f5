// Package wizard runs the persisted multi-turn dialogues that collect an
// operation's parameters one answer at a time.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cajabot/cajabot/internal/database/repository"
	"github.com/cajabot/cajabot/internal/ledger"
)

// Reply is what a wizard turn sends back to the caller.
type Reply struct {
	Text string
	// Done reports that the session ended this turn, successfully or not.
	Done bool
	// Executed reports that the underlying ledger operation committed.
	Executed bool
	// Operation names the ledger operation for auditing, set when Done.
	Operation string
}

// Engine drives wizard sessions against their flow definitions.
type Engine struct {
	Sessions *repository.SessionRepo
	Clients  *repository.ClientRepo
	Accounts *repository.AccountRepo
	Orders   *repository.PurchaseOrderRepo
	Ledger   *ledger.Executor
	TTL      time.Duration
	Log      zerolog.Logger
}

// Start creates (or resumes) the session for the owner and operation type and
// returns the prompt for its current step. Create is idempotent: an existing
// live session is resumed, not duplicated.
func (e *Engine) Start(ctx context.Context, ownerID, operationType string) (Reply, error) {
	f, ok := flows[operationType]
	if !ok {
		return Reply{}, fmt.Errorf("unknown wizard type %q", operationType)
	}
	s, err := e.Sessions.Create(ctx, ownerID, operationType, e.TTL)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: f.steps[s.CurrentStep-1].prompt(s.CollectedData)}, nil
}

// ActiveSession returns the live session consuming the owner's input, if any.
func (e *Engine) ActiveSession(ctx context.Context, ownerID string) (*repository.WizardSession, error) {
	return e.Sessions.GetLiveForOwner(ctx, ownerID)
}

// Cancel deletes the owner's live session. Returns false when there was none.
func (e *Engine) Cancel(ctx context.Context, ownerID string) (bool, error) {
	s, err := e.Sessions.GetLiveForOwner(ctx, ownerID)
	if err != nil || s == nil {
		return false, err
	}
	return true, e.Sessions.Delete(ctx, s.ID)
}

// HandleInput feeds one user turn into the session's current step. A step
// failure keeps the session on the same step so the next turn retries it. The
// final step executes the operation and deletes the session win or lose.
func (e *Engine) HandleInput(ctx context.Context, s *repository.WizardSession, input string) (Reply, error) {
	f, ok := flows[s.OperationType]
	if !ok {
		_ = e.Sessions.Delete(ctx, s.ID)
		return Reply{}, fmt.Errorf("unknown wizard type %q", s.OperationType)
	}
	if s.CurrentStep < 1 || s.CurrentStep > len(f.steps) {
		e.Log.Warn().Str("session", s.ID).Int("step", s.CurrentStep).Msg("wizard session out of range, resetting")
		_ = e.Sessions.Delete(ctx, s.ID)
		return Reply{Text: "La operación en curso quedó en un estado inválido y fue cancelada. Empieza de nuevo.", Done: true}, nil
	}

	st := f.steps[s.CurrentStep-1]
	updates, failMsg, err := st.apply(ctx, e, s.CollectedData, input)
	if err != nil {
		return Reply{}, err
	}
	if failMsg != "" {
		// Stay on the same step; re-prompt.
		return Reply{Text: failMsg + "\n" + st.prompt(s.CollectedData)}, nil
	}

	data := merge(s.CollectedData, updates)
	if s.CurrentStep < len(f.steps) {
		next := s.CurrentStep + 1
		if err := e.Sessions.Advance(ctx, s.ID, next, data, e.TTL); err != nil {
			if isInvalidTransition(err) {
				e.Log.Warn().Str("session", s.ID).Err(err).Msg("wizard step regression, resetting session")
				_ = e.Sessions.Delete(ctx, s.ID)
				return Reply{Text: "La operación en curso quedó en un estado inválido y fue cancelada. Empieza de nuevo.", Done: true}, nil
			}
			return Reply{}, err
		}
		return Reply{Text: f.steps[next-1].prompt(data)}, nil
	}

	// Final step: one-shot. The session is completed regardless of how the
	// underlying transaction went; there is no retry loop.
	_ = e.Sessions.Complete(ctx, s.ID)
	text, executed := f.finish(ctx, e, data)
	return Reply{Text: text, Done: true, Executed: executed, Operation: f.operation}, nil
}

// merge folds updates into base with defined precedence: new values always
// win. The base map is not mutated.
func merge(base, updates map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(updates))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

func isInvalidTransition(err error) bool {
	return errors.Is(err, repository.ErrInvalidTransition)
}
