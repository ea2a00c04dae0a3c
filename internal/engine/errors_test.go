package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/modelq/internal/queryir"
)

func TestQueryError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *QueryError
		want string
	}{
		{
			name: "type and attribute",
			err:  NewAttributeNotFoundError("Task", "title"),
			want: `ATTRIBUTE_NOT_FOUND: type "Task" has no attribute "title" (type=Task, attribute=title)`,
		},
		{
			name: "type only",
			err:  NewTypeNotFoundError("INVALID"),
			want: `TYPE_NOT_FOUND: cannot find the type "INVALID" in the metamodel (type=INVALID)`,
		},
		{
			name: "no context",
			err:  NewUnsupportedCompositionError("xor"),
			want: `UNSUPPORTED_COMPOSITION: unsupported condition composition "xor", expecting "and" or "or"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorHelpers_Wrapped(t *testing.T) {
	err := fmt.Errorf("select Task: %w", NewTypeNotFoundError("Task"))

	assert.True(t, IsTypeNotFound(err))
	assert.False(t, IsAttributeNotFound(err))
	assert.False(t, IsInvalidQuery(err))
	assert.Equal(t, ErrCodeTypeNotFound, ErrorCode(err))
}

func TestErrorHelpers_DecodeErrorIsInvalidQuery(t *testing.T) {
	_, err := queryir.Decode(map[string]any{"condition1": map[string]any{"attribute": "name"}})
	wrapped := fmt.Errorf("decode query: %w", err)

	assert.True(t, IsInvalidQuery(wrapped))
	assert.Equal(t, ErrCodeInvalidQuery, ErrorCode(wrapped))
}

func TestErrorHelpers_PlainError(t *testing.T) {
	err := fmt.Errorf("boom")
	assert.Equal(t, QueryErrorCode(""), ErrorCode(err))
	assert.False(t, IsTypeNotFound(err))
	assert.False(t, IsUnsupportedComparator(err))
	assert.False(t, IsUnsupportedComposition(err))
}

func TestNewUnsupportedComparatorError_Details(t *testing.T) {
	err := NewUnsupportedComparatorError("Task", "days", "about", []string{"greater than", "lower than"})
	assert.Equal(t, ErrCodeUnsupportedComparator, err.Code)
	assert.Equal(t, "about", err.Details["comparator"])
	assert.Equal(t, `["greater than" "lower than"]`, err.Details["supported"])
}
