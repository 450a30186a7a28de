package service

import (
	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
)

const (
	msgNotAssignee    = "You can only modify tasks assigned to you."
	msgStaleVersion   = "This task has been modified by someone else. Please refresh and try again."
	msgCannotReassign = "You do not have permission to change the assignee."
)

// applyPatch проверяет права, версию и переход статуса для заблокированной
// строки current и возвращает строку для записи. Порядок проверок важен:
// права, версия, переход, переназначение.
// Любая роль, кроме admin, ограничена как member.
func applyPatch(current model.Task, requester model.Requester, patch model.TaskPatch) (model.Task, error) {
	if patch.Version == nil {
		return model.Task{}, apperr.New(apperr.InvalidInput, msgVersionRequired)
	}

	if !requester.IsAdmin() && !current.AssignedTo(requester.ID) {
		return model.Task{}, apperr.New(apperr.Forbidden, msgNotAssignee)
	}

	if *patch.Version != current.Version {
		return model.Task{}, apperr.New(apperr.Conflict, msgStaleVersion)
	}

	if patch.Status != nil && !model.CanTransition(current.Status, *patch.Status) {
		return model.Task{}, apperr.Newf(apperr.InvalidTransition,
			"Invalid status transition from %s to %s.", current.Status, *patch.Status)
	}

	if !requester.IsAdmin() && patch.AssigneeUserID.Set && !patch.AssigneeUserID.Equal(requester.ID) {
		return model.Task{}, apperr.New(apperr.Forbidden, msgCannotReassign)
	}

	next := current
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.AssigneeUserID.Set {
		next.AssigneeUserID = patch.AssigneeUserID.Value
	}
	return next, nil
}
