package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

// Mutation errors.
var (
	ErrDeleteInFlight = errors.New("delete already in progress")
	ErrSaveInFlight   = errors.New("save already in progress")
	ErrNoEditSession  = errors.New("no edit in progress")
)

// MutationState is the lifecycle of one optimistic change to a record.
type MutationState int

// Mutation states. Idle means no mutation has been attempted.
const (
	Idle MutationState = iota
	Pending
	Committed
	RolledBack
)

func (s MutationState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	default:
		return "idle"
	}
}

type mutationKind int

const (
	deleting mutationKind = iota + 1
	saving
)

// inFlightError names the mutation already running for a record.
func inFlightError(kind mutationKind, id int64) error {
	if kind == saving {
		return fmt.Errorf("%w: transaction %d", ErrSaveInFlight, id)
	}
	return fmt.Errorf("%w: transaction %d", ErrDeleteInFlight, id)
}

// EditSession is an in-progress edit of one record. Its draft is independent
// of the list until the save succeeds.
type EditSession struct {
	Err      error
	Original model.Transaction
	Patch    model.Patch
}

// Draft returns the record as it would look after saving.
func (s EditSession) Draft() model.Transaction {
	return s.Patch.Apply(s.Original)
}

// Mutator applies deletes and edits optimistically and reconciles the list
// with the server afterwards.
type Mutator struct {
	api      service.TransactionAPI
	list     *List
	notifier *Notifier
	logger   *slog.Logger
	states   map[int64]MutationState
	inFlight map[int64]mutationKind
	edit     *EditSession
	mu       sync.Mutex
}

// NewMutator creates a mutator for list. notifier may be nil.
func NewMutator(api service.TransactionAPI, list *List, notifier *Notifier) *Mutator {
	return &Mutator{
		api:      api,
		list:     list,
		notifier: notifier,
		states:   make(map[int64]MutationState),
		inFlight: make(map[int64]mutationKind),
		logger:   slog.Default().With("component", "mutator"),
	}
}

// State returns the mutation state of id.
func (m *Mutator) State(id int64) MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[id]
}

// finish records the outcome of a mutation and releases the record.
func (m *Mutator) finish(id int64, s MutationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = s
	delete(m.inFlight, id)
}

// Delete removes id from the view at once, then asks the server. On failure
// the record is restored by reloading the page from the server and the API
// error is returned.
func (m *Mutator) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	if kind, ok := m.inFlight[id]; ok {
		m.mu.Unlock()
		return inFlightError(kind, id)
	}
	m.inFlight[id] = deleting
	m.states[id] = Pending
	m.mu.Unlock()

	m.list.hide(id)

	if err := m.api.Delete(ctx, id); err != nil {
		m.finish(id, RolledBack)
		m.list.unhide(id)
		m.logger.Warn("Delete failed, resyncing", "id", id, "error", err)
		m.notify(LevelError, fmt.Sprintf("Delete failed: %v", err))
		m.resync(ctx)
		return err
	}

	m.finish(id, Committed)
	m.notify(LevelSuccess, "Transaction deleted")
	// Keep id hidden until the follow-up fetch has superseded older requests.
	m.resync(ctx)
	m.list.unhide(id)
	return nil
}

func (m *Mutator) resync(ctx context.Context) {
	if err := m.list.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleResponse) && !errors.Is(err, ErrDetached) {
		m.logger.Warn("Refresh after mutation failed", "error", err)
	}
}

// BeginEdit opens an edit session for tx, replacing any open session.
func (m *Mutator) BeginEdit(tx model.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edit = &EditSession{Original: tx}
}

// Editing returns a copy of the open edit session.
func (m *Mutator) Editing() (EditSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edit == nil {
		return EditSession{}, false
	}
	return *m.edit, true
}

// Set changes one field of the draft. Values equal to the original leave
// the field out of the patch.
func (m *Mutator) Set(field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edit == nil {
		return ErrNoEditSession
	}
	if err := m.edit.Patch.Set(field, value); err != nil {
		return err
	}
	if model.FieldValue(m.edit.Patch.Apply(m.edit.Original), field) == model.FieldValue(m.edit.Original, field) {
		m.edit.Patch.Clear(field)
	}
	return nil
}

// CancelEdit discards the open session.
func (m *Mutator) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edit = nil
}

// SaveEdit sends the session's patch. On success the row is replaced by the
// server's record and the session closes. On failure the session stays open
// with the error recorded.
func (m *Mutator) SaveEdit(ctx context.Context) (model.Transaction, error) {
	m.mu.Lock()
	session := m.edit
	if session == nil {
		m.mu.Unlock()
		return model.Transaction{}, ErrNoEditSession
	}
	id := session.Original.ID
	patch := session.Patch
	if patch.IsEmpty() {
		m.edit = nil
		m.mu.Unlock()
		return session.Original, nil
	}
	if kind, ok := m.inFlight[id]; ok {
		m.mu.Unlock()
		return model.Transaction{}, inFlightError(kind, id)
	}
	m.inFlight[id] = saving
	m.states[id] = Pending
	m.mu.Unlock()

	updated, err := m.api.Update(ctx, id, patch)
	if err != nil {
		m.mu.Lock()
		m.states[id] = RolledBack
		delete(m.inFlight, id)
		if m.edit == session {
			m.edit.Err = err
		}
		m.mu.Unlock()
		m.notify(LevelError, fmt.Sprintf("Save failed: %v", err))
		return model.Transaction{}, err
	}

	m.mu.Lock()
	m.states[id] = Committed
	delete(m.inFlight, id)
	if m.edit == session {
		m.edit = nil
	}
	m.mu.Unlock()

	m.list.replaceLocal([]model.Transaction{updated})
	m.notify(LevelSuccess, "Transaction updated")
	return updated, nil
}

func (m *Mutator) notify(level Level, msg string) {
	if m.notifier != nil {
		m.notifier.Notify(level, msg)
	}
}
