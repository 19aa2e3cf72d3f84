package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasklist-api/internal/api/shared"
	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTaskService struct {
	mock.Mock
}

func (m *mockTaskService) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *mockTaskService) GetByID(ctx context.Context, taskID, ownerID int64) (*domain.Task, error) {
	args := m.Called(ctx, taskID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskService) Create(ctx context.Context, ownerID int64, in domain.TaskInput) (*domain.Task, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskService) Update(
	ctx context.Context,
	taskID, ownerID int64,
	in domain.TaskInput,
) (*domain.Task, error) {
	args := m.Called(ctx, taskID, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskService) Delete(ctx context.Context, taskID, ownerID int64) error {
	return m.Called(ctx, taskID, ownerID).Error(0)
}

func (m *mockTaskService) UpdateStatus(ctx context.Context, taskID, ownerID int64, completed bool) (bool, error) {
	args := m.Called(ctx, taskID, ownerID, completed)
	return args.Bool(0), args.Error(1)
}

type mockAuditService struct {
	mock.Mock
}

func (m *mockAuditService) Record(
	ctx context.Context,
	taskID, ownerID int64,
	message string,
) (*domain.AuditEntry, error) {
	args := m.Called(ctx, taskID, ownerID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditEntry), args.Error(1)
}

func (m *mockAuditService) History(ctx context.Context, taskID, ownerID int64) ([]*domain.AuditEntry, error) {
	args := m.Called(ctx, taskID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditEntry), args.Error(1)
}

const testOwnerID int64 = 1

// withOwner stands in for the auth middleware.
func withOwner(ownerID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.SetUserID(r.Context(), ownerID)))
		})
	}
}

func newTestRouter(tasks service.TaskService, audit service.AuditService, ownerID int64) http.Handler {
	h := NewTaskHandler(tasks, audit, nil)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		if ownerID > 0 {
			r.Use(withOwner(ownerID))
		}
		h.Routes(r)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func sampleTask(id int64) *domain.Task {
	desc := "two litres"
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Task{
		ID:          id,
		OwnerID:     testOwnerID,
		Title:       "buy milk",
		Description: &desc,
		DueDate:     &due,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func TestNewTaskHandlerPanicsOnNilServices(t *testing.T) {
	assert.Panics(t, func() { NewTaskHandler(nil, &mockAuditService{}, nil) })
	assert.Panics(t, func() { NewTaskHandler(&mockTaskService{}, nil, nil) })
}

func TestListTasks(t *testing.T) {
	t.Run("returns todos", func(t *testing.T) {
		tasks := &mockTaskService{}
		tasks.On("ListByOwner", mock.Anything, testOwnerID).
			Return([]*domain.Task{sampleTask(2), sampleTask(1)}, nil)

		rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodGet, "/api/todos", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		resp := decodeBody[TaskListResponse](t, rec)
		require.Len(t, resp.Todos, 2)
		assert.Equal(t, int64(2), resp.Todos[0].ID)
		assert.Equal(t, "2025-03-01", *resp.Todos[0].DueDate)
		assert.Equal(t, "2025-01-02T03:04:05Z", resp.Todos[0].CreatedAt)
		tasks.AssertExpectations(t)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		tasks := &mockTaskService{}
		tasks.On("ListByOwner", mock.Anything, testOwnerID).Return([]*domain.Task{}, nil)

		rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodGet, "/api/todos", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"todos":[]}`, rec.Body.String())
	})

	t.Run("requires an owner", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(&mockTaskService{}, &mockAuditService{}, 0), http.MethodGet, "/api/todos", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetTask(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(m *mockTaskService)
		wantStatus int
		wantError  string
	}{
		{
			name: "found",
			path: "/api/todo/5",
			setup: func(m *mockTaskService) {
				m.On("GetByID", mock.Anything, int64(5), testOwnerID).Return(sampleTask(5), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/api/todo/5",
			setup: func(m *mockTaskService) {
				m.On("GetByID", mock.Anything, int64(5), testOwnerID).Return(nil, service.ErrTaskNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantError:  "Task not found",
		},
		{
			name: "storage failure hides details",
			path: "/api/todo/5",
			setup: func(m *mockTaskService) {
				m.On("GetByID", mock.Anything, int64(5), testOwnerID).Return(nil,
					service.NewTaskServiceError("get_task", "failed", errors.New("dial tcp 10.0.0.1:5432: refused")))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "An unexpected error occurred",
		},
		{
			name:       "non-numeric id",
			path:       "/api/todo/abc",
			setup:      func(*mockTaskService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid task ID",
		},
		{
			name:       "zero id",
			path:       "/api/todo/0",
			setup:      func(*mockTaskService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid task ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &mockTaskService{}
			tt.setup(tasks)

			rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodGet, tt.path, "")

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				resp := decodeBody[shared.ErrorResponse](t, rec)
				assert.Equal(t, tt.wantError, resp.Error)
				assert.NotContains(t, rec.Body.String(), "10.0.0.1")
			} else {
				resp := decodeBody[TaskResponse](t, rec)
				assert.Equal(t, int64(5), resp.ID)
				assert.Equal(t, "buy milk", resp.Title)
			}
			tasks.AssertExpectations(t)
		})
	}
}

func TestCreateTask(t *testing.T) {
	t.Run("creates with parsed fields", func(t *testing.T) {
		tasks := &mockTaskService{}
		tasks.On("Create", mock.Anything, testOwnerID, mock.MatchedBy(func(in domain.TaskInput) bool {
			return in.Title == "buy milk" &&
				in.Description != nil && *in.Description == "two litres" &&
				in.DueDate != nil && in.DueDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				!in.Completed
		})).Return(sampleTask(9), nil)

		rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodPost, "/api/todo",
			`{"title":"buy milk","description":"two litres","due_date":"2025-03-01"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(9), decodeBody[TaskResponse](t, rec).ID)
		tasks.AssertExpectations(t)
	})

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{name: "missing title", body: `{"description":"x"}`, wantError: "Invalid title: required field"},
		{name: "title too long", body: `{"title":"` + strings.Repeat("a", 256) + `"}`, wantError: "Invalid title: too long"},
		{name: "bad due date", body: `{"title":"a","due_date":"01/03/2025"}`, wantError: "Invalid due_date: must be a date in YYYY-MM-DD format"},
		{name: "malformed json", body: `{"title":`, wantError: "Invalid request format"},
		{name: "empty body", body: "", wantError: "Invalid request format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &mockTaskService{}

			rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodPost, "/api/todo", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantError, decodeBody[shared.ErrorResponse](t, rec).Error)
			tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("domain validation error is a 400", func(t *testing.T) {
		tasks := &mockTaskService{}
		tasks.On("Create", mock.Anything, testOwnerID, mock.Anything).Return(nil, domain.ErrEmptyTaskTitle)

		rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodPost, "/api/todo",
			`{"title":"   "}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid title: required field", decodeBody[shared.ErrorResponse](t, rec).Error)
	})
}

func TestUpdateTask(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "updated", wantStatus: http.StatusOK},
		{name: "locked", err: service.ErrTaskLocked, wantStatus: http.StatusConflict, wantError: "Task is updating"},
		{name: "not found", err: service.ErrTaskNotFound, wantStatus: http.StatusNotFound, wantError: "Task not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &mockTaskService{}
			call := tasks.On("Update", mock.Anything, int64(7), testOwnerID, mock.MatchedBy(func(in domain.TaskInput) bool {
				return in.Title == "renamed" && in.Completed
			}))
			if tt.err != nil {
				call.Return(nil, tt.err)
			} else {
				call.Return(sampleTask(7), nil)
			}

			rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodPut, "/api/todo/7",
				`{"title":"renamed","is_completed":true}`)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeBody[shared.ErrorResponse](t, rec).Error)
			}
			tasks.AssertExpectations(t)
		})
	}
}

func TestDeleteTask(t *testing.T) {
	tasks := &mockTaskService{}
	tasks.On("Delete", mock.Anything, int64(7), testOwnerID).Return(nil)

	rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodDelete, "/api/todo/7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Task deleted"}`, rec.Body.String())
	tasks.AssertExpectations(t)
}

func TestUpdateTaskStatus(t *testing.T) {
	t.Run("sets false explicitly", func(t *testing.T) {
		tasks := &mockTaskService{}
		tasks.On("UpdateStatus", mock.Anything, int64(7), testOwnerID, false).Return(false, nil)

		rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodPatch,
			"/api/todo/7/update-status", `{"is_completed":false}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"is_completed":false}`, rec.Body.String())
		tasks.AssertExpectations(t)
	})

	t.Run("flag is required", func(t *testing.T) {
		tasks := &mockTaskService{}

		rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodPatch,
			"/api/todo/7/update-status", `{}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid is_completed: required field", decodeBody[shared.ErrorResponse](t, rec).Error)
	})

	t.Run("locked task", func(t *testing.T) {
		tasks := &mockTaskService{}
		tasks.On("UpdateStatus", mock.Anything, int64(7), testOwnerID, true).Return(false, service.ErrTaskLocked)

		rec := doRequest(t, newTestRouter(tasks, &mockAuditService{}, testOwnerID), http.MethodPatch,
			"/api/todo/7/update-status", `{"is_completed":true}`)

		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestGetTaskLogs(t *testing.T) {
	t.Run("returns history oldest first", func(t *testing.T) {
		tasks := &mockTaskService{}
		audit := &mockAuditService{}
		ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		tasks.On("GetByID", mock.Anything, int64(7), testOwnerID).Return(sampleTask(7), nil)
		audit.On("History", mock.Anything, int64(7), testOwnerID).Return([]*domain.AuditEntry{
			{ID: 1, TaskID: 7, OwnerID: testOwnerID, Message: domain.AuditTaskCreated, CreatedAt: ts},
			{ID: 2, TaskID: 7, OwnerID: testOwnerID, Message: domain.AuditStatusMessage(true), CreatedAt: ts},
		}, nil)

		rec := doRequest(t, newTestRouter(tasks, audit, testOwnerID), http.MethodGet, "/api/todo/7/logs", "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[TaskLogsResponse](t, rec)
		require.Len(t, resp.Logs, 2)
		assert.Equal(t, "Task created", resp.Logs[0].Message)
		assert.Equal(t, "Task status updated to true", resp.Logs[1].Message)
		assert.Equal(t, int64(7), resp.Logs[1].TodoID)
	})

	t.Run("hidden task is a 404 without reading history", func(t *testing.T) {
		tasks := &mockTaskService{}
		audit := &mockAuditService{}
		tasks.On("GetByID", mock.Anything, int64(7), testOwnerID).Return(nil, service.ErrTaskNotFound)

		rec := doRequest(t, newTestRouter(tasks, audit, testOwnerID), http.MethodGet, "/api/todo/7/logs", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
		audit.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything)
	})
}
