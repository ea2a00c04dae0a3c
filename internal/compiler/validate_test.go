package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelq/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	schema := ir.NewSchema("ok",
		&ir.TypeDef{Name: "Named", Abstract: true, Attributes: []ir.AttributeDef{{Name: "name", Kind: ir.KindString}}},
		&ir.TypeDef{Name: "Project", Supertypes: []string{"Named"}, Contains: []string{"Task"}},
		&ir.TypeDef{Name: "Task", Attributes: []ir.AttributeDef{{Name: "days", Kind: ir.KindNumber}}},
	)
	assert.Empty(t, Validate(schema))
}

func TestValidateNoTypes(t *testing.T) {
	assert.Equal(t, []string{ErrNoTypes}, codes(Validate(nil)))
	assert.Equal(t, []string{ErrNoTypes}, codes(Validate(ir.NewSchema("empty"))))
}

func TestValidateDuplicateType(t *testing.T) {
	schema := ir.NewSchema("dup", &ir.TypeDef{Name: "Task"}, &ir.TypeDef{Name: "Task"})
	errs := Validate(schema)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateType, errs[0].Code)
	assert.Equal(t, "Task", errs[0].Type)
}

func TestValidateAttributes(t *testing.T) {
	schema := ir.NewSchema("attrs", &ir.TypeDef{
		Name: "Task",
		Attributes: []ir.AttributeDef{
			{Name: "days", Kind: ir.KindNumber},
			{Name: "days", Kind: ir.KindNumber},
			{Name: "due", Kind: "date"},
			{Name: " ", Kind: ir.KindString},
		},
	})

	errs := Validate(schema)
	assert.Equal(t, []string{ErrDuplicateAttribute, ErrInvalidKind, ErrEmptyName}, codes(errs))
	assert.Equal(t, "type.Task.attributes.due", errs[1].Field)
}

func TestValidateEmptyTypeName(t *testing.T) {
	errs := Validate(ir.NewSchema("blank", &ir.TypeDef{Name: ""}))
	assert.Equal(t, []string{ErrEmptyName}, codes(errs))
	assert.Equal(t, "types[0].name", errs[0].Field)
}

func TestValidateReferences(t *testing.T) {
	schema := ir.NewSchema("refs",
		&ir.TypeDef{Name: "Project", Contains: []string{"Task", "Ghost"}},
		&ir.TypeDef{Name: "Task", Supertypes: []string{"Item"}},
	)

	errs := Validate(schema)
	assert.Equal(t, []string{ErrUnknownContained, ErrUnknownSupertype}, codes(errs))
	assert.Contains(t, errs[0].Message, `"Ghost"`)
	assert.Contains(t, errs[1].Message, `"Item"`)
}

func TestValidateInheritedAttributeConflict(t *testing.T) {
	schema := ir.NewSchema("conflict",
		&ir.TypeDef{Name: "Task", Attributes: []ir.AttributeDef{{Name: "name", Kind: ir.KindString}}},
		&ir.TypeDef{Name: "Milestone", Supertypes: []string{"Task"}, Attributes: []ir.AttributeDef{{Name: "name", Kind: ir.KindString}}},
	)

	errs := Validate(schema)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateAttribute, errs[0].Code)
	assert.Equal(t, "Milestone", errs[0].Type)
}

func TestValidateDiamondIsNotAConflict(t *testing.T) {
	schema := ir.NewSchema("diamond",
		&ir.TypeDef{Name: "Named", Attributes: []ir.AttributeDef{{Name: "name", Kind: ir.KindString}}},
		&ir.TypeDef{Name: "Left", Supertypes: []string{"Named"}},
		&ir.TypeDef{Name: "Right", Supertypes: []string{"Named"}},
		&ir.TypeDef{Name: "Both", Supertypes: []string{"Left", "Right"}},
	)
	assert.Empty(t, Validate(schema))
}

func TestValidateCycle(t *testing.T) {
	schema := ir.NewSchema("cycle",
		&ir.TypeDef{Name: "A", Supertypes: []string{"B"}},
		&ir.TypeDef{Name: "B", Supertypes: []string{"A"}},
	)

	errs := Validate(schema)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInheritanceCycle, errs[0].Code)
	assert.Equal(t, "inheritance cycle: A extends B extends A", errs[0].Message)
}

func TestFindInheritanceCycles(t *testing.T) {
	tests := []struct {
		name      string
		types     []*ir.TypeDef
		wantPaths [][]string
	}{
		{
			name: "acyclic",
			types: []*ir.TypeDef{
				{Name: "A"},
				{Name: "B", Supertypes: []string{"A"}},
				{Name: "C", Supertypes: []string{"B", "A"}},
			},
			wantPaths: nil,
		},
		{
			name:      "self loop",
			types:     []*ir.TypeDef{{Name: "A", Supertypes: []string{"A"}}},
			wantPaths: [][]string{{"A", "A"}},
		},
		{
			name: "three types",
			types: []*ir.TypeDef{
				{Name: "A", Supertypes: []string{"B"}},
				{Name: "B", Supertypes: []string{"C"}},
				{Name: "C", Supertypes: []string{"A"}},
				{Name: "D", Supertypes: []string{"A"}},
			},
			wantPaths: [][]string{{"A", "B", "C", "A"}},
		},
		{
			name: "unknown supertype ignored",
			types: []*ir.TypeDef{
				{Name: "A", Supertypes: []string{"Ghost"}},
			},
			wantPaths: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycles := FindInheritanceCycles(ir.NewSchema(tt.name, tt.types...))
			require.NotNil(t, cycles)

			var paths [][]string
			for _, c := range cycles {
				paths = append(paths, c.Path)
			}
			assert.Equal(t, tt.wantPaths, paths)
		})
	}
}
