package inmemdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gmao/core/events"
	"github.com/trezcool/gmao/core/task"
	"github.com/trezcool/gmao/core/user"
	inmemdb "github.com/trezcool/gmao/storage/database/inmem"
	"github.com/trezcool/gmao/tests"
)

func TestTaskRepository_UpdateTaskStatus(t *testing.T) {
	broker := events.NewBroker(4)
	defer broker.Close()
	db := inmemdb.Open(broker)
	usrRepo := inmemdb.NewUserRepository(db)
	repo := inmemdb.NewTaskRepository(db)
	ctx := context.Background()

	manager := testutil.CreateUser(t, usrRepo, "Ali", "ali@gmao.ma", "", user.RoleManager, true)
	sara := testutil.CreateUser(t, usrRepo, "Sara", "sara@gmao.ma", "", user.RoleTechnician, true)
	tsk := testutil.CreateTask(t, repo, "Graisser", sara, manager, task.StatusPending, task.PriorityLow)

	evts, unsubscribe := broker.Subscribe(nil)
	defer unsubscribe()

	tests := []struct {
		name       string
		id         string
		from, to   string
		wantErr    error
		wantStatus string
	}{
		{"unknown task", "lol", task.StatusPending, task.StatusInProgress, task.ErrNotFound, task.StatusPending},
		{"stale status", tsk.ID, task.StatusInProgress, task.StatusCompleted, task.ErrInvalidTransition, task.StatusPending},
		{"current status", tsk.ID, task.StatusPending, task.StatusInProgress, nil, task.StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.UpdateTaskStatus(ctx, tt.id, tt.from, tt.to, time.Now().UTC())
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.to, got.Status)
				require.NotNil(t, got.Assignee)
				assert.Equal(t, sara.Email, got.Assignee.Email)
			}
			stored, err := repo.GetTask(ctx, tsk.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}

	// only the applied update is published
	assert.Len(t, evts, 1)
}
