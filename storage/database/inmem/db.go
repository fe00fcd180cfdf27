// Package inmemdb is a process-local store, used by tests and by the API when no database is configured.
package inmemdb

import (
	"sync"

	"github.com/trezcool/gmao/core/events"
	"github.com/trezcool/gmao/core/task"
	"github.com/trezcool/gmao/core/user"
)

type DB struct {
	sync.RWMutex

	users     map[string]*user.User
	userOrder []string // insertion order
	tokens    map[string]user.RevokedToken
	tasks     map[string]*task.Task
	taskOrder []string

	// pub receives the task changes, like the NOTIFY trigger of the SQL store
	pub events.Publisher
}

// Open returns an empty store. pub may be nil.
func Open(pub events.Publisher) *DB {
	db := &DB{pub: pub}
	db.reset()
	return db
}

// Reset drops all the data.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.users = make(map[string]*user.User)
	db.userOrder = nil
	db.tokens = make(map[string]user.RevokedToken)
	db.tasks = make(map[string]*task.Task)
	db.taskOrder = nil
}

func (db *DB) publish(typ string, t task.Task) {
	if db.pub == nil {
		return
	}
	db.pub.Publish(events.Event{Type: typ, TaskID: t.ID, AssignedTo: t.AssignedTo, At: t.UpdatedAt})
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
