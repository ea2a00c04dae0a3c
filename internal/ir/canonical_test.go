package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":true}`, string(got))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(got))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + COMBINING ACUTE ACCENT normalises to U+00E9
	got, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonicalNumbers(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{Number(4), "4"},
		{Number(-1), "-1"},
		{Number(2.5), "2.5"},
		{float64(0.1), "0.1"},
		{int64(7), "7"},
	}
	for _, tt := range tests {
		got, err := MarshalCanonical(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(Null{})
	assert.Error(t, err)

	_, err = MarshalCanonical(math.NaN())
	assert.Error(t, err)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestMarshalCanonicalDropsNullMembers(t *testing.T) {
	got, err := MarshalCanonical(map[string]Value{"name": String("p"), "days": Null{}})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"p"}`, string(got))
}

func TestNodeDocument(t *testing.T) {
	s := newTestSchema()
	n := NewNode(typeNamed(s, "Task")).Set("description", String("write docs")).Set("days", Number(3))

	got, err := MarshalCanonical(NodeDocument(n))
	require.NoError(t, err)
	assert.Equal(t, `{"attributes":{"days":3,"description":"write docs"},"type":"Task"}`, string(got))
}

func TestQueryIDDeterministic(t *testing.T) {
	a := MustQueryID("s1", "Task", `{"x":1}`, 3)
	b := MustQueryID("s1", "Task", `{"x":1}`, 3)
	c := MustQueryID("s1", "Task", `{"x":1}`, 4)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestResultHashOrderSensitive(t *testing.T) {
	s := newTestSchema()
	task := typeNamed(s, "Task")
	n1 := NewNode(task).Set("days", Number(2))
	n2 := NewNode(task).Set("days", Number(4))

	h12, err := ResultHash([]*Node{n1, n2})
	require.NoError(t, err)
	h21, err := ResultHash([]*Node{n2, n1})
	require.NoError(t, err)
	empty, err := ResultHash(nil)
	require.NoError(t, err)

	assert.NotEqual(t, h12, h21)
	assert.NotEqual(t, h12, empty)
}
