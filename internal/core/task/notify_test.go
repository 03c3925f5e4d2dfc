package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rows(ids ...string) []Row {
	out := make([]Row, len(ids))
	for i, id := range ids {
		out[i] = Row{ID: id, Text: id, Completable: true, Badge: -1}
	}
	return out
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		before []Row
		after  []Row
		want   Change
	}{
		{
			name:   "no change",
			before: rows("a", "b"),
			after:  rows("a", "b"),
			want:   Change{Kind: ChangeUpdate},
		},
		{
			name:   "insert at head",
			before: rows("a", "b"),
			after:  rows("n", "a", "b"),
			want:   Change{Kind: ChangeUpdate, Insertions: []int{0}},
		},
		{
			name:   "delete middle",
			before: rows("a", "b", "c"),
			after:  rows("a", "c"),
			want:   Change{Kind: ChangeUpdate, Deletions: []int{1}},
		},
		{
			name:   "move to tail",
			before: rows("a", "b", "c"),
			after:  rows("b", "c", "a"),
			want:   Change{Kind: ChangeUpdate, Deletions: []int{0}, Insertions: []int{2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.before, tt.after))
		})
	}

	t.Run("modification", func(t *testing.T) {
		after := rows("a", "b")
		after[1].Completed = true
		got := Diff(rows("a", "b"), after)
		assert.Equal(t, []int{1}, got.Modifications)
		assert.True(t, got.Deletions == nil && got.Insertions == nil)
	})
}

func TestNotifier(t *testing.T) {
	var n Notifier
	var gotA, gotB int
	tokA := n.Add(func(Change) { gotA++ })
	n.Add(func(Change) { gotB++ })

	n.Notify(Change{Kind: ChangeUpdate}, nil)
	n.Notify(Change{Kind: ChangeUpdate}, tokA)

	assert.Equal(t, 1, gotA)
	assert.Equal(t, 2, gotB)

	tokA.Stop()
	tokA.Stop()
	assert.Equal(t, 1, n.Len())
}
