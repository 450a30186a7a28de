package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
)

// задача из описания сценариев: id 5, todo, исполнитель 7, версия 3
func scenarioTask() model.Task {
	return model.Task{
		ID:             5,
		ProjectID:      1,
		Title:          "Migrate user database",
		Status:         model.StatusTodo,
		AssigneeUserID: ptr(int64(7)),
		Version:        3,
	}
}

var (
	member7 = model.Requester{ID: 7, Role: model.RoleMember}
	member8 = model.Requester{ID: 8, Role: model.RoleMember}
	admin1  = model.Requester{ID: 1, Role: model.RoleAdmin}
)

func TestApplyPatch(t *testing.T) {
	tests := []struct {
		name      string
		current   model.Task
		requester model.Requester
		patch     model.TaskPatch
		wantKind  apperr.Kind
		check     func(t *testing.T, next model.Task)
	}{
		{
			name:      "member moves own task to in_progress",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{Status: ptr(model.StatusInProgress), Version: ptr(3)},
			check: func(t *testing.T, next model.Task) {
				assert.Equal(t, model.StatusInProgress, next.Status)
				assert.Equal(t, "Migrate user database", next.Title)
				assert.Equal(t, 3, next.Version, "version is bumped by storage, not policy")
			},
		},
		{
			name:      "stale version",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{Version: ptr(2)},
			wantKind:  apperr.Conflict,
		},
		{
			name:      "todo to done is not allowed",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{Status: ptr(model.StatusDone), Version: ptr(3)},
			wantKind:  apperr.InvalidTransition,
		},
		{
			name:      "unknown status is an invalid transition",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{Status: ptr(model.TaskStatus("archived")), Version: ptr(3)},
			wantKind:  apperr.InvalidTransition,
		},
		{
			name:      "member who is not the assignee",
			current:   scenarioTask(),
			requester: member8,
			patch:     model.TaskPatch{Title: ptr("mine now"), Version: ptr(3)},
			wantKind:  apperr.Forbidden,
		},
		{
			name:      "authorization is checked before version",
			current:   scenarioTask(),
			requester: member8,
			patch:     model.TaskPatch{Version: ptr(1)},
			wantKind:  apperr.Forbidden,
		},
		{
			name:      "version is checked before transition",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{Status: ptr(model.StatusDone), Version: ptr(2)},
			wantKind:  apperr.Conflict,
		},
		{
			name:      "transition is checked before reassignment",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{Status: ptr(model.StatusDone), AssigneeUserID: model.SomeID(8), Version: ptr(3)},
			wantKind:  apperr.InvalidTransition,
		},
		{
			name:      "member reassigns to someone else",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{Title: ptr("valid"), AssigneeUserID: model.SomeID(8), Version: ptr(3)},
			wantKind:  apperr.Forbidden,
		},
		{
			name:      "member clears assignee",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{AssigneeUserID: model.NullID(), Version: ptr(3)},
			wantKind:  apperr.Forbidden,
		},
		{
			name:      "member keeps self as assignee",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{AssigneeUserID: model.SomeID(7), Version: ptr(3)},
			check: func(t *testing.T, next model.Task) {
				require.NotNil(t, next.AssigneeUserID)
				assert.Equal(t, int64(7), *next.AssigneeUserID)
			},
		},
		{
			name:      "unknown role is restricted like a member",
			current:   scenarioTask(),
			requester: model.Requester{ID: 8, Role: "guest"},
			patch:     model.TaskPatch{Version: ptr(3)},
			wantKind:  apperr.Forbidden,
		},
		{
			name:      "admin edits any task and reassigns",
			current:   scenarioTask(),
			requester: admin1,
			patch:     model.TaskPatch{Title: ptr("Renamed"), AssigneeUserID: model.SomeID(8), Version: ptr(3)},
			check: func(t *testing.T, next model.Task) {
				assert.Equal(t, "Renamed", next.Title)
				require.NotNil(t, next.AssigneeUserID)
				assert.Equal(t, int64(8), *next.AssigneeUserID)
			},
		},
		{
			name:      "admin unassigns",
			current:   scenarioTask(),
			requester: admin1,
			patch:     model.TaskPatch{AssigneeUserID: model.NullID(), Version: ptr(3)},
			check: func(t *testing.T, next model.Task) {
				assert.Nil(t, next.AssigneeUserID)
			},
		},
		{
			name:      "admin cannot leave done",
			current:   func() model.Task { task := scenarioTask(); task.Status = model.StatusDone; return task }(),
			requester: admin1,
			patch:     model.TaskPatch{Status: ptr(model.StatusInProgress), Version: ptr(3)},
			wantKind:  apperr.InvalidTransition,
		},
		{
			name:      "no-op patch is allowed",
			current:   scenarioTask(),
			requester: member7,
			patch:     model.TaskPatch{Status: ptr(model.StatusTodo), Version: ptr(3)},
			check: func(t *testing.T, next model.Task) {
				assert.Equal(t, scenarioTask(), next)
			},
		},
		{
			name:      "missing version",
			current:   scenarioTask(),
			requester: admin1,
			patch:     model.TaskPatch{Title: ptr("x")},
			wantKind:  apperr.InvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := applyPatch(tt.current, tt.requester, tt.patch)

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, next)
			}
		})
	}
}

func TestApplyPatch_ForbiddenMessagesDiffer(t *testing.T) {
	_, notAssignee := applyPatch(scenarioTask(), member8, model.TaskPatch{Version: ptr(3)})
	_, reassign := applyPatch(scenarioTask(), member7, model.TaskPatch{AssigneeUserID: model.SomeID(8), Version: ptr(3)})

	assert.ErrorIs(t, notAssignee, apperr.Forbidden)
	assert.ErrorIs(t, reassign, apperr.Forbidden)
	assert.NotEqual(t, apperr.Message(notAssignee), apperr.Message(reassign))
}
