package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approxeq-generator/internal/descriptor"
)

func TestLink_NestedRecords(t *testing.T) {
	position := record("Position", field("X", f32), field("Y", f32))
	size := record("Size", field("W", f64))
	// Declared before the types it depends on.
	rect := record("Rectangle",
		field("Origin", recordRef("Position")),
		field("Extent", recordRef("Size")),
		field("Corners", descriptor.SliceOf(recordRef("Position"))),
	)

	linked, err := Link([]*descriptor.Descriptor{rect, position, size})
	require.NoError(t, err)
	require.Len(t, linked, 3)

	r := linked[0]
	require.NotNil(t, r.Fields[0].Type.Epsilon)
	assert.Equal(t, "float32", r.Fields[0].Type.Epsilon.Expr)
	assert.Equal(t, "float64", r.Fields[1].Type.Epsilon.Expr)
	assert.Equal(t, "float32", r.Fields[2].Type.EpsilonType().Expr)

	assert.Equal(t, "float32", ResolveTolerance(r).Type.Expr)

	// Inputs are left untouched.
	assert.Nil(t, rect.Fields[0].Type.Epsilon)
}

func TestLink_GenericInstantiation(t *testing.T) {
	pair := &descriptor.Descriptor{
		Name:   "Pair",
		Kind:   descriptor.KindRecord,
		Params: []descriptor.GenericParam{{Name: "K", Constraint: "comparable"}, {Name: "T", Constraint: "any"}},
		Fields: []descriptor.Field{
			field("Key", descriptor.Param("K"), skip()),
			field("A", descriptor.Param("T")),
		},
	}
	holder := record("Holder", field("P", recordRef("Pair[string, float32]")))

	linked, err := Link([]*descriptor.Descriptor{pair, holder})
	require.NoError(t, err)

	ref := linked[1].Fields[0].Type
	require.NotNil(t, ref.Epsilon)
	assert.Equal(t, "float32", ref.Epsilon.Expr)
	assert.Equal(t, descriptor.ClassPrimitive, ref.Epsilon.Class)
}

func TestLink_ExplicitEpsilonTypeRef(t *testing.T) {
	position := record("Position", field("X", f32))
	tagged := &descriptor.Descriptor{
		Name:       "Tagged",
		Kind:       descriptor.KindRecord,
		Fields:     []descriptor.Field{field("Count", i64)},
		Directives: descriptor.TypeDirectives{EpsilonType: descriptor.Ptr(recordRef("Position"))},
	}

	linked, err := Link([]*descriptor.Descriptor{tagged, position})
	require.NoError(t, err)
	assert.Equal(t, "float32", ResolveTolerance(linked[0]).Type.Expr)
}

func TestLink_Cycle(t *testing.T) {
	a := record("A", field("B", recordRef("B")))
	b := record("B", field("A", recordRef("A")))
	ok := record("C", field("V", f64))

	_, err := Link([]*descriptor.Descriptor{ok, a, b})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToleranceCycle)
	assert.Contains(t, err.Error(), "A, B")
}

func TestLink_CycleOnlyThroughLaterFields(t *testing.T) {
	// The tolerance type only follows the first field, so a back reference
	// in a later field is fine.
	tree := record("Tree", field("Value", f64), field("Children", descriptor.SliceOf(recordRef("Tree"))))

	linked, err := Link([]*descriptor.Descriptor{tree})
	require.NoError(t, err)
	assert.Equal(t, "float64", linked[0].Fields[1].Type.EpsilonType().Expr)
}

func TestTypeArgs(t *testing.T) {
	assert.Nil(t, typeArgs("Point"))
	assert.Equal(t, []string{"float64"}, typeArgs("Pair[float64]"))
	assert.Equal(t, []string{"map[string]int", "[]Pair[int, int]"}, typeArgs("Two[map[string]int, []Pair[int, int]]"))
	assert.Equal(t, "Pair", baseName("*Pair[float64]"))
}

func TestTopoSort_Order(t *testing.T) {
	order, stuck, err := topoSort(3, func(i int) []int {
		switch i {
		case 0:
			return []int{2}
		case 1:
			return nil
		default:
			return []int{1}
		}
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	assert.Empty(t, stuck)
	assert.Equal(t, []int{1, 2, 0}, order)
}

func TestTopoSort_Cycle(t *testing.T) {
	_, stuck, err := topoSort(3, func(i int) []int {
		switch i {
		case 0:
			return []int{1}
		case 1:
			return []int{0}
		default:
			return nil
		}
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	assert.Equal(t, []int{0, 1}, stuck)
}
