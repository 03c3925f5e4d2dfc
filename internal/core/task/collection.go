package task

import "context"

// Collection is an ordered, observable sequence of rows owned by the
// persistence layer. Reads return snapshots; every mutation happens inside
// Write, which commits all changes atomically or none of them.
type Collection interface {
	// Kind reports whether the collection holds lists or tasks.
	Kind() Kind

	// Title is the text of the owning list, or empty for the list set.
	Title() string

	// Len returns the number of rows.
	Len() int

	// Rows returns a copy of all rows in display order.
	Rows() []Row

	// At returns the row at index i.
	At(i int) (Row, error)

	// IndexOf returns the index of the row with the given ID, or -1 when it
	// no longer exists.
	IndexOf(id string) int

	// Filter returns the rows matching pred in display order.
	Filter(pred func(Row) bool) []Row

	// Write runs fn inside one write transaction. If fn returns an error or
	// panics, the transaction is rolled back and no notification is sent.
	Write(ctx context.Context, fn func(tx Tx) error, opts ...WriteOption) error

	// Refresh reloads the collection from the backing store and notifies
	// subscribers of any difference. It is how writes made elsewhere (another
	// process, a sync agent) become visible.
	Refresh(ctx context.Context) error

	// Subscribe registers fn for change notifications. The first event is
	// always ChangeInitial.
	Subscribe(fn func(Change)) *Token
}

// Tx is the mutable view of a Collection inside a write transaction. Indexes
// refer to the state as modified so far within the same transaction.
type Tx interface {
	Len() int
	At(i int) (Row, error)
	IndexOf(id string) int
	Insert(at int, text string) (Row, error)
	Remove(at int) error
	Move(from, to int) error
	SetText(at int, text string) error
	SetCompleted(at int, completed bool) error
	// RemoveWhere deletes every row matching pred and returns how many were
	// removed.
	RemoveWhere(pred func(Row) bool) (int, error)
}

// CompletedCount counts the completed rows of c.
func CompletedCount(c interface{ Filter(func(Row) bool) []Row }) int {
	return len(c.Filter(func(r Row) bool { return r.Completed }))
}

// WriteOptions holds the options applied to a single write.
type WriteOptions struct {
	Skip *Token
}

// WriteOption configures a write.
type WriteOption func(*WriteOptions)

// WithoutNotifying suppresses the change notification for the given
// subscription. A presenter uses it for writes whose effect it has already
// rendered itself.
func WithoutNotifying(tok *Token) WriteOption {
	return func(o *WriteOptions) {
		o.Skip = tok
	}
}

// ApplyWriteOptions folds opts into a WriteOptions value.
func ApplyWriteOptions(opts []WriteOption) WriteOptions {
	var o WriteOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
