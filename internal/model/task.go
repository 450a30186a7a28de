package model

import (
	"encoding/json"
	"time"
)

type Task struct {
	ID             int64      `json:"id"`
	ProjectID      int64      `json:"project_id"`
	Title          string     `json:"title"`
	Status         TaskStatus `json:"status"`
	AssigneeUserID *int64     `json:"assignee_user_id"`
	AssigneeName   *string    `json:"assignee_name,omitempty"`
	DueDate        *time.Time `json:"due_date"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AssignedTo reports whether userID is the current assignee.
func (t Task) AssignedTo(userID int64) bool {
	return t.AssigneeUserID != nil && *t.AssigneeUserID == userID
}

type TaskFilter struct {
	Status     *TaskStatus
	AssigneeID *int64
}

// TaskPatch - частичное обновление задачи. Отсутствующие поля не меняются.
type TaskPatch struct {
	Title          *string
	Status         *TaskStatus
	AssigneeUserID OptionalID
	Version        *int
}

// OptionalID distinguishes an absent field from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int64
}

func SomeID(id int64) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

func NullID() OptionalID {
	return OptionalID{Set: true}
}

// Equal reports whether the optional carries exactly id.
func (o OptionalID) Equal(id int64) bool {
	return o.Set && o.Value != nil && *o.Value == id
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

type NewTask struct {
	ProjectID      int64
	Title          string
	Status         TaskStatus // пустой статус означает todo
	AssigneeUserID *int64
	DueDate        *time.Time
}
