package ledger

import (
	"time"

	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/service"
)

// Options configures a Ledger.
type Options struct {
	Query          Query
	NotifyDuration time.Duration
}

// Ledger is the state behind one transaction view.
type Ledger struct {
	List      *List
	Mutator   *Mutator
	Selection *Selection
	Bulk      *BulkEditor
	Notifier  *Notifier
}

// New wires a list, its controllers and a notifier together. The selection
// is reconciled against every page the list shows.
func New(api service.TransactionAPI, opts Options) *Ledger {
	notifier := NewNotifier(opts.NotifyDuration)
	list := NewList(api, opts.Query)
	selection := NewSelection()

	list.Subscribe(func(s Snapshot) {
		if s.Err == nil {
			selection.Reconcile(model.IDs(s.Records))
		}
	})

	return &Ledger{
		List:      list,
		Mutator:   NewMutator(api, list, notifier),
		Selection: selection,
		Bulk:      NewBulkEditor(api, list, selection, notifier),
		Notifier:  notifier,
	}
}

// Close detaches the list and stops the notifier.
func (l *Ledger) Close() {
	l.List.Close()
	l.Notifier.Close()
}
