package task

import (
	"slices"
	"sync"
)

// ChangeKind classifies a change notification.
type ChangeKind int

const (
	// ChangeInitial is delivered once, right after subscribing.
	ChangeInitial ChangeKind = iota
	// ChangeUpdate carries the index sets of a committed change.
	ChangeUpdate
	// ChangeError reports that the collection can no longer be observed.
	ChangeError
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInitial:
		return "initial"
	case ChangeUpdate:
		return "update"
	case ChangeError:
		return "error"
	default:
		return "unknown"
	}
}

// Change is a collection change notification. Deletions are indexes into the
// previous state; Insertions and Modifications index the new state. A moved
// row is reported as a deletion plus an insertion.
type Change struct {
	Kind          ChangeKind
	Deletions     []int
	Insertions    []int
	Modifications []int
	Title         string
	Err           error
}

// Empty reports whether an update carries no index changes.
func (c Change) Empty() bool {
	return len(c.Deletions) == 0 && len(c.Insertions) == 0 && len(c.Modifications) == 0
}

// Token identifies a subscription. Stop is idempotent.
type Token struct {
	id       int
	notifier *Notifier
}

// Stop cancels the subscription.
func (t *Token) Stop() {
	if t == nil || t.notifier == nil {
		return
	}
	t.notifier.remove(t.id)
}

// Notifier is the subscriber registry shared by Collection implementations.
// Callbacks are invoked synchronously on the goroutine that calls Notify.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Change)
}

// Add registers fn and returns its token.
func (n *Notifier) Add(fn func(Change)) *Token {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(Change))
	}
	n.nextID++
	n.subs[n.nextID] = fn
	return &Token{id: n.nextID, notifier: n}
}

func (n *Notifier) remove(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// Len returns the number of live subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Notify delivers c to every subscriber except skip.
func (n *Notifier) Notify(c Change, skip *Token) {
	n.mu.Lock()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		if skip != nil && skip.notifier == n && skip.id == id {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Diff computes the change between two row snapshots. Rows keep their
// identity by ID; rows whose relative order changed are reported as moved
// (deleted at their old index, inserted at their new one).
func Diff(before, after []Row) Change {
	ch := Change{Kind: ChangeUpdate}

	oldIdx := make(map[string]int, len(before))
	for i, r := range before {
		oldIdx[r.ID] = i
	}
	newIdx := make(map[string]int, len(after))
	for i, r := range after {
		newIdx[r.ID] = i
	}

	// Common IDs in old order and in new order.
	var oldCommon, newCommon []string
	for _, r := range before {
		if _, ok := newIdx[r.ID]; ok {
			oldCommon = append(oldCommon, r.ID)
		}
	}
	for _, r := range after {
		if _, ok := oldIdx[r.ID]; ok {
			newCommon = append(newCommon, r.ID)
		}
	}
	stable := lcs(oldCommon, newCommon)

	for i, r := range before {
		if _, ok := newIdx[r.ID]; !ok || !stable[r.ID] {
			ch.Deletions = append(ch.Deletions, i)
		}
	}
	for i, r := range after {
		j, ok := oldIdx[r.ID]
		switch {
		case !ok || !stable[r.ID]:
			ch.Insertions = append(ch.Insertions, i)
		case before[j] != r:
			ch.Modifications = append(ch.Modifications, i)
		}
	}

	return ch
}

// lcs returns the set of IDs on a longest common subsequence of a and b.
func lcs(a, b []string) map[string]bool {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else {
				dp[i][j] = max(dp[i+1][j], dp[i][j+1])
			}
		}
	}

	out := make(map[string]bool, dp[0][0])
	for i, j := 0, 0; i < n && j < m; {
		switch {
		case a[i] == b[j]:
			out[a[i]] = true
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return out
}
