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

// Bulk action errors.
var (
	ErrEmptySelection = errors.New("no transactions selected")
	ErrNotBulkEditing = errors.New("bulk edit is not active")
	ErrNotSelected    = errors.New("transaction is not selected")
)

// BulkEditor performs delete and edit on every selected transaction at once.
type BulkEditor struct {
	api       service.TransactionAPI
	list      *List
	selection *Selection
	notifier  *Notifier
	logger    *slog.Logger
	buffer    map[int64]*model.Patch
	mu        sync.Mutex
	active    bool
}

// NewBulkEditor creates a bulk editor over selection. notifier may be nil.
func NewBulkEditor(api service.TransactionAPI, list *List, selection *Selection, notifier *Notifier) *BulkEditor {
	return &BulkEditor{
		api:       api,
		list:      list,
		selection: selection,
		notifier:  notifier,
		buffer:    make(map[int64]*model.Patch),
		logger:    slog.Default().With("component", "bulk"),
	}
}

// BulkDelete deletes every selected transaction with one request. On success
// the rows leave the page, the selection clears and the page is reloaded.
func (b *BulkEditor) BulkDelete(ctx context.Context) error {
	ids := b.selection.IDs()
	if len(ids) == 0 {
		return ErrEmptySelection
	}

	if err := b.api.BulkDelete(ctx, ids); err != nil {
		b.notify(LevelError, fmt.Sprintf("Bulk delete failed: %v", err))
		return err
	}

	b.list.removeLocal(ids)
	b.selection.Clear()
	b.notify(LevelSuccess, fmt.Sprintf("Deleted %d transactions", len(ids)))

	if err := b.list.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleResponse) && !errors.Is(err, ErrDetached) {
		b.logger.Warn("Refresh after bulk delete failed", "error", err)
	}
	return nil
}

// BeginBulkEdit enters bulk-edit mode with an empty buffer.
func (b *BulkEditor) BeginBulkEdit() error {
	if b.selection.Len() == 0 {
		return ErrEmptySelection
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = true
	clear(b.buffer)
	return nil
}

// Active reports whether bulk-edit mode is on.
func (b *BulkEditor) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Set records a field change for one selected transaction.
func (b *BulkEditor) Set(id int64, field, value string) error {
	if !b.selection.Has(id) {
		return fmt.Errorf("%w: %d", ErrNotSelected, id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return ErrNotBulkEditing
	}
	p, ok := b.buffer[id]
	if !ok {
		p = &model.Patch{}
	}
	if err := p.Set(field, value); err != nil {
		return err
	}
	b.buffer[id] = p
	return nil
}

// SetAll records the same field change for every selected transaction.
func (b *BulkEditor) SetAll(field, value string) error {
	for _, id := range b.selection.IDs() {
		if err := b.Set(id, field, value); err != nil {
			return err
		}
	}
	return nil
}

// Draft returns the buffered patch for id.
func (b *BulkEditor) Draft(id int64) model.Patch {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.buffer[id]; ok {
		return *p
	}
	return model.Patch{}
}

// CancelBulkEdit leaves bulk-edit mode, discarding the buffer. The selection stays.
func (b *BulkEditor) CancelBulkEdit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = false
	clear(b.buffer)
}

// SaveBulk sends one entry per selected transaction, including those with no
// changes. Returned records replace their rows; rows absent from the response
// are untouched. On failure the mode, buffer and selection are kept.
func (b *BulkEditor) SaveBulk(ctx context.Context) ([]model.Transaction, error) {
	ids := b.selection.IDs()
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}

	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return nil, ErrNotBulkEditing
	}
	patches := make([]model.BulkPatch, 0, len(ids))
	for _, id := range ids {
		entry := model.BulkPatch{ID: id}
		if p, ok := b.buffer[id]; ok {
			entry.Patch = *p
		}
		patches = append(patches, entry)
	}
	b.mu.Unlock()

	updated, err := b.api.BulkUpdate(ctx, patches)
	if err != nil {
		b.notify(LevelError, fmt.Sprintf("Bulk update failed: %v", err))
		return nil, err
	}

	b.list.replaceLocal(updated)
	b.selection.Clear()
	b.CancelBulkEdit()
	b.notify(LevelSuccess, fmt.Sprintf("Updated %d transactions", len(updated)))
	return updated, nil
}

func (b *BulkEditor) notify(level Level, msg string) {
	if b.notifier != nil {
		b.notifier.Notify(level, msg)
	}
}
