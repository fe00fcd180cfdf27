package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gmao/core/task"
	"github.com/trezcool/gmao/core/user"
	"github.com/trezcool/gmao/tests"
)

type taskFixture struct {
	*env
	manager, sara, omar user.User
}

func setupTasks(t *testing.T) taskFixture {
	e := setup(t)
	return taskFixture{
		env:     e,
		manager: testutil.CreateUser(t, e.usrRepo, "Ali", "ali@gmao.ma", "", user.RoleManager, true),
		sara:    testutil.CreateUser(t, e.usrRepo, "Sara", "sara@gmao.ma", "", user.RoleTechnician, true),
		omar:    testutil.CreateUser(t, e.usrRepo, "Omar", "omar@gmao.ma", "", user.RoleTechnician, true),
	}
}

// reload returns the stored task, with its assignee joined.
func (f taskFixture) reload(t *testing.T, tsk task.Task) task.Task {
	t.Helper()
	got, err := f.taskRepo.GetTask(context.Background(), tsk.ID)
	require.NoError(t, err)
	return got
}

func Test_taskApi_create(t *testing.T) {
	f := setupTasks(t)
	managerToken := getToken(t, f.conf, f.manager)
	invalidAssignee := "assignee must be an active technician"

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "manager required", token: getToken(t, f.conf, f.sara), body: marchallObj(t, task.NewTask{Title: "x", AssignedTo: f.sara.ID}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", token: managerToken, body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required", "assigned_to": "this field is required"}),
		},
		{
			name: "invalid priority", token: managerToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, task.NewTask{Title: "Graisser", AssignedTo: f.sara.ID, Priority: "asap"}),
			wantData: marchallObj(t, map[string]string{"priority": "invalid priority"}),
		},
		{
			name: "invalid due date", token: managerToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, task.NewTask{Title: "Graisser", AssignedTo: f.sara.ID, DueDate: "demain"}),
			wantData: marchallObj(t, map[string]string{"due_date": "due_date must be a date formatted as YYYY-MM-DD"}),
		},
		{
			name: "assignee is a manager", token: managerToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, task.NewTask{Title: "Graisser", AssignedTo: f.manager.ID}),
			wantData: marchallObj(t, map[string]string{"assigned_to": invalidAssignee}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/tasks"
	}
	runHTTPTests(t, f.app, tests)

	t.Run("created", func(t *testing.T) {
		body := marchallObj(t, task.NewTask{Title: " Graisser le convoyeur ", AssignedTo: f.sara.ID, DueDate: "2024-03-01"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks", managerToken, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got task.Task
		decode(t, rec, &got)
		assert.Equal(t, "Graisser le convoyeur", got.Title)
		assert.Equal(t, task.StatusPending, got.Status)
		assert.Equal(t, task.PriorityMedium, got.Priority)
		assert.Equal(t, f.manager.ID, got.CreatedBy)
		require.NotNil(t, got.Assignee)
		assert.Equal(t, f.sara.Email, got.Assignee.Email)

		sent := f.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, f.sara.Email, sent[0].To[0].Address)
		assert.True(t, strings.HasSuffix(sent[0].Subject, "Graisser le convoyeur"))
	})
}

func Test_taskApi_query(t *testing.T) {
	f := setupTasks(t)
	now := time.Now()
	t1 := f.reload(t, testutil.CreateTask(t, f.taskRepo, "Graisser", f.sara, f.manager, task.StatusPending, task.PriorityLow, now))
	t2 := f.reload(t, testutil.CreateTask(t, f.taskRepo, "Vidanger", f.omar, f.manager, task.StatusInProgress, task.PriorityHigh, now.Add(time.Minute)))
	t3 := f.reload(t, testutil.CreateTask(t, f.taskRepo, "Inspecter", f.sara, f.manager, task.StatusCompleted, task.PriorityMedium, now.Add(2*time.Minute)))

	managerToken := getToken(t, f.conf, f.manager)
	saraToken := getToken(t, f.conf, f.sara)

	tests := []httpTest{
		{name: "auth required", path: "/v1/tasks", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "manager required", path: "/v1/tasks", token: saraToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "newest first", path: "/v1/tasks", token: managerToken, wantData: marchallList(t, t3, t2, t1)},
		{name: "by status", path: "/v1/tasks?status=pending&status=in_progress", token: managerToken, wantData: marchallList(t, t2, t1)},
		{name: "by assignee", path: "/v1/tasks?assigned_to=" + f.sara.ID, token: managerToken, wantData: marchallList(t, t3, t1)},
		{name: "ordered by title", path: "/v1/tasks?ordering=title", token: managerToken, wantData: marchallList(t, t1, t3, t2)},
		{name: "descending, repeated parameter", path: "/v1/tasks?ordering=-title,%20TITLE&ordering=created_at", token: managerToken, wantData: marchallList(t, t2, t3, t1)},
		{
			name: "unknown ordering field", path: "/v1/tasks?ordering=-priority", token: managerToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"ordering": `unknown field "priority", expected one of created_at, updated_at, due_date, title`,
			}),
		},
		{name: "mine", path: "/v1/tasks/mine", token: saraToken, wantData: marchallList(t, t3, t1)},
		{name: "mine (none)", path: "/v1/tasks/mine", token: managerToken, wantData: marchallList(t)},
		{name: "retrieve", path: "/v1/tasks/" + t1.ID, token: saraToken, wantData: marchallObj(t, t1)},
		{
			name: "retrieve (not assignee)", path: "/v1/tasks/" + t1.ID, token: getToken(t, f.conf, f.omar),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "task not found"}),
		},
		{name: "retrieve (manager)", path: "/v1/tasks/" + t2.ID, token: managerToken, wantData: marchallObj(t, t2)},
	}
	runHTTPTests(t, f.app, tests)
}

func Test_taskApi_updateStatus(t *testing.T) {
	f := setupTasks(t)
	tsk := testutil.CreateTask(t, f.taskRepo, "Graisser", f.sara, f.manager, task.StatusPending, task.PriorityLow)
	path := "/v1/tasks/" + tsk.ID + "/status"
	saraToken := getToken(t, f.conf, f.sara)

	status := func(s string) []byte { return marchallObj(t, task.UpdateStatus{Status: s}) }
	tests := []struct {
		httpTest
		wantStatus string
	}{
		{httpTest{name: "required", token: saraToken, body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "this field is required"})}, task.StatusPending},
		{httpTest{name: "unknown status", token: saraToken, body: status("done"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "invalid status"})}, task.StatusPending},
		{httpTest{name: "not assignee", token: getToken(t, f.conf, f.omar), body: status(task.StatusInProgress),
			wantCode: http.StatusNotFound}, task.StatusPending},
		{httpTest{name: "start", token: saraToken, body: status(" IN_PROGRESS "), wantCode: http.StatusOK}, task.StatusInProgress},
		{httpTest{name: "go back", token: saraToken, body: status(task.StatusPending), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "cannot go from in_progress to pending"})}, task.StatusInProgress},
		{httpTest{name: "complete", token: saraToken, body: status(task.StatusCompleted), wantCode: http.StatusOK}, task.StatusCompleted},
		{httpTest{name: "manager reopens", token: getToken(t, f.conf, f.manager), body: status(task.StatusPending),
			wantCode: http.StatusOK}, task.StatusPending},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPatch, path, tt.token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)
			assert.Equal(t, tt.wantStatus, f.reload(t, tsk).Status)
		})
	}
}

func Test_taskApi_destroy(t *testing.T) {
	f := setupTasks(t)
	tsk := testutil.CreateTask(t, f.taskRepo, "Graisser", f.sara, f.manager, task.StatusPending, task.PriorityLow)
	path := "/v1/tasks/" + tsk.ID
	managerToken := getToken(t, f.conf, f.manager)

	runHTTPTests(t, f.app, []httpTest{
		{name: "manager required", method: http.MethodDelete, path: path, token: getToken(t, f.conf, f.sara), wantCode: http.StatusForbidden},
		{name: "deleted", method: http.MethodDelete, path: path, token: managerToken, wantCode: http.StatusNoContent},
		{name: "already deleted", method: http.MethodDelete, path: path, token: managerToken, wantCode: http.StatusNotFound},
		{name: "gone", path: path, token: managerToken, wantCode: http.StatusNotFound},
	})
}
