package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalID_UnmarshalJSON(t *testing.T) {
	type body struct {
		Assignee OptionalID `json:"assignee_user_id"`
	}

	tests := []struct {
		name      string
		input     string
		wantSet   bool
		wantValue *int64
	}{
		{name: "absent", input: `{}`, wantSet: false},
		{name: "explicit null", input: `{"assignee_user_id": null}`, wantSet: true},
		{name: "value", input: `{"assignee_user_id": 7}`, wantSet: true, wantValue: ptr(int64(7))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b body
			require.NoError(t, json.Unmarshal([]byte(tt.input), &b))
			assert.Equal(t, tt.wantSet, b.Assignee.Set)
			assert.Equal(t, tt.wantValue, b.Assignee.Value)
		})
	}
}

func TestOptionalID_RejectsNonInteger(t *testing.T) {
	var o OptionalID
	assert.Error(t, json.Unmarshal([]byte(`"seven"`), &o))
}

func TestOptionalID_Equal(t *testing.T) {
	assert.True(t, SomeID(7).Equal(7))
	assert.False(t, SomeID(7).Equal(8))
	assert.False(t, NullID().Equal(7))
	assert.False(t, OptionalID{}.Equal(7))
}

func TestTask_AssignedTo(t *testing.T) {
	task := Task{AssigneeUserID: ptr(int64(7))}
	assert.True(t, task.AssignedTo(7))
	assert.False(t, task.AssignedTo(3))
	assert.False(t, Task{}.AssignedTo(7))
}

func ptr[T any](v T) *T { return &v }
