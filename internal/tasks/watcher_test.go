package tasks

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestWatcher_Relevant(t *testing.T) {
	w := &Watcher{base: "tasks.db"}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"db write", fsnotify.Event{Name: "/data/tasks/tasks.db", Op: fsnotify.Write}, true},
		{"db create", fsnotify.Event{Name: "/data/tasks/tasks.db", Op: fsnotify.Create}, true},
		{"wal write", fsnotify.Event{Name: "/data/tasks/tasks.db-wal", Op: fsnotify.Write}, true},
		{"write with chmod", fsnotify.Event{Name: "/data/tasks/tasks.db", Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"shm write", fsnotify.Event{Name: "/data/tasks/tasks.db-shm", Op: fsnotify.Write}, false},
		{"db chmod", fsnotify.Event{Name: "/data/tasks/tasks.db", Op: fsnotify.Chmod}, false},
		{"db remove", fsnotify.Event{Name: "/data/tasks/tasks.db", Op: fsnotify.Remove}, false},
		{"db rename", fsnotify.Event{Name: "/data/tasks/tasks.db", Op: fsnotify.Rename}, false},
		{"log write", fsnotify.Event{Name: "/data/tasks/tasks.log", Op: fsnotify.Write}, false},
		{"other db", fsnotify.Event{Name: "/data/tasks/other.db", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}
