package eval

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/plan"
	"approxeq-generator/primitive"
)

type (
	Position struct{ X, Y float64 }
	Size     struct{ W, H float64 }

	Rectangle struct {
		Origin Position
		Extent Size
		Label  string
	}

	Series struct {
		Samples []float32
		Window  [3]int32
	}

	Event struct {
		Score float64
		At    time.Time
	}

	Stats struct{ Hits int }
	Count struct{ N int64 }
	Precise struct{ V float64 }

	Pair[T any] struct{ A, B T }

	Location interface{ isLocation() }
	Smooth   struct{ X, Y float64 }
	Origin   struct{}
	Lattice  int
	Polar    struct{ R float64 }

	Route struct{ From Location }
)

func (Smooth) isLocation()  {}
func (Origin) isLocation()  {}
func (Lattice) isLocation() {}
func (*Polar) isLocation()  {}

const testPkg = "example.com/shapes"

var (
	f32 = descriptor.Prim(primitive.KindFloat32)
	f64 = descriptor.Float64()
)

func field(name string, t descriptor.TypeRef, dirs ...descriptor.Directives) descriptor.Field {
	f := descriptor.Field{Name: descriptor.FieldName{Ident: name}, Type: t}
	if len(dirs) > 0 {
		f.Directives = dirs[0]
	}

	return f
}

func record(name string, relative bool, fields ...descriptor.Field) *descriptor.Descriptor {
	return &descriptor.Descriptor{
		Name:     name,
		PkgPath:  testPkg,
		PkgName:  "shapes",
		Kind:     descriptor.KindRecord,
		Fields:   fields,
		Relative: relative,
	}
}

func src(s string) *descriptor.Expr {
	return descriptor.Ptr(descriptor.Expr(s))
}

func ref(name string, class descriptor.TypeClass) descriptor.TypeRef {
	return descriptor.TypeRef{Expr: name, Class: class}
}

func location() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		Name:     "Location",
		PkgPath:  testPkg,
		PkgName:  "shapes",
		Kind:     descriptor.KindUnion,
		Relative: true,
		Variants: []descriptor.Variant{
			{
				Name: "Smooth", TypeExpr: "Smooth", Shape: descriptor.ShapeNamed,
				Fields: []descriptor.Field{field("X", f64), field("Y", f64)},
			},
			{Name: "Origin", TypeExpr: "Origin", Shape: descriptor.ShapeUnit},
			{
				Name: "Lattice", TypeExpr: "Lattice", Shape: descriptor.ShapePositional,
				Fields: []descriptor.Field{{
					Name:       descriptor.FieldName{Index: 0},
					Type:       descriptor.TypeRef{Expr: "Lattice", Class: descriptor.ClassPrimitive, Prim: primitive.KindInt},
					Directives: descriptor.Directives{Cast: descriptor.Ptr(descriptor.CastValue)},
				}},
			},
			{
				Name: "Polar", TypeExpr: "*Polar", Shape: descriptor.ShapeNamed,
				Fields: []descriptor.Field{field("R", f64)},
			},
		},
	}
}

func pair() *descriptor.Descriptor {
	d := record("Pair", true, field("A", descriptor.Param("T")), field("B", descriptor.Param("T")))
	d.Params = []descriptor.GenericParam{{Name: "T", Constraint: "any"}}

	return d
}

// setup links and synthesizes descs, registering every output.
func setup(t *testing.T, reg *Registry, descs ...*descriptor.Descriptor) (*Evaluator, map[string]*plan.Output) {
	t.Helper()

	if reg == nil {
		reg = NewRegistry()
	}

	linked, err := plan.Link(descs)
	require.NoError(t, err)

	outs := make(map[string]*plan.Output, len(linked))

	for _, d := range linked {
		out, err := plan.Synthesize(d)
		require.NoError(t, err)

		reg.RegisterOutput(out)
		outs[d.Name] = out
	}

	return New(reg), outs
}

func position() *descriptor.Descriptor {
	return record("Position", true, field("X", f64), field("Y", f64))
}

func TestEvaluator_Record(t *testing.T) {
	ev, outs := setup(t, nil, position())
	a, b := Position{1.01, 2.36}, Position{0.99, 2.38}

	ok, err := ev.AbsDiffEq(outs["Position"], a, b, 0.01)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ev.AbsDiffEq(outs["Position"], a, b, 0.021)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.AbsDiffEq(outs["Position"], &a, &a, 0.0)
	require.NoError(t, err)
	assert.True(t, ok, "pointers are compared by value")
}

func TestEvaluator_Relative(t *testing.T) {
	ev, outs := setup(t, nil, position())
	a, b := Position{100, 200}, Position{101, 202}

	ok, err := ev.RelativeEq(outs["Position"], a, b, 0.0, 0.01)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.RelativeEq(outs["Position"], a, b, 0.0, 0.001)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_Defaults(t *testing.T) {
	reading := record("Reading", true, field("V1", f64))
	reading.Directives.DefaultEpsilon = src("1e-9")

	ev, outs := setup(t, nil, position(), reading)

	eps, err := ev.DefaultEpsilon(outs["Position"])
	require.NoError(t, err)
	assert.Equal(t, math.Nextafter(1, 2)-1, eps)

	maxRel, err := ev.DefaultMaxRelative(outs["Position"])
	require.NoError(t, err)
	assert.Equal(t, math.Nextafter(1, 2)-1, maxRel)

	eps, err = ev.DefaultEpsilon(outs["Reading"])
	require.NoError(t, err)
	assert.Equal(t, 1e-9, eps)

	// A nil tolerance uses the default.
	type R struct{ V1 float64 }

	ok, err := ev.AbsDiffEq(outs["Reading"], R{1}, R{1 + 1e-10}, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.AbsDiffEq(outs["Reading"], R{1}, R{1 + 1e-8}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_Nested(t *testing.T) {
	rect := record("Rectangle", false,
		field("Origin", ref("Position", descriptor.ClassRecord)),
		field("Extent", ref("Size", descriptor.ClassRecord)),
		field("Label", ref("string", descriptor.ClassOther), descriptor.Directives{Equal: descriptor.Ptr(true)}),
	)
	size := record("Size", false, field("W", f64), field("H", f64))

	ev, outs := setup(t, nil, position(), size, rect)

	a := Rectangle{Origin: Position{1, 1}, Extent: Size{2, 2}, Label: "a"}
	b := Rectangle{Origin: Position{1.001, 1}, Extent: Size{2, 2.001}, Label: "a"}

	ok, err := ev.AbsDiffEq(outs["Rectangle"], a, b, 0.01)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.AbsDiffEq(outs["Rectangle"], a, b, 0.0001)
	require.NoError(t, err)
	assert.False(t, ok)

	b.Label = "b"

	ok, err = ev.AbsDiffEq(outs["Rectangle"], a, b, math.Inf(1))
	require.NoError(t, err)
	assert.False(t, ok, "equal directive ignores the tolerance")

	eps, err := ev.DefaultEpsilon(outs["Rectangle"])
	require.NoError(t, err)
	assert.Equal(t, math.Nextafter(1, 2)-1, eps)
}

func TestEvaluator_AllSkipped(t *testing.T) {
	stats := record("Stats", false, field("Hits", descriptor.Prim(primitive.KindInt), descriptor.Directives{Skip: descriptor.Ptr(true)}))
	ev, outs := setup(t, nil, stats)

	ok, err := ev.AbsDiffEq(outs["Stats"], Stats{1}, Stats{100}, 0.0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluator_Sequences(t *testing.T) {
	iter := descriptor.Directives{Iterate: descriptor.Ptr(true)}

	window := iter
	window.Cast = descriptor.Ptr(descriptor.CastValue)

	series := record("Series", false,
		field("Samples", descriptor.SliceOf(f32), iter),
		field("Window", descriptor.ArrayOf(3, descriptor.Prim(primitive.KindInt32)), window),
	)

	ev, outs := setup(t, nil, series)
	inf := float32(math.Inf(1))

	a := Series{Samples: []float32{1, 2}, Window: [3]int32{1, 2, 3}}
	b := Series{Samples: []float32{1.5, 2}, Window: [3]int32{1, 2, 4}}

	ok, err := ev.AbsDiffEq(outs["Series"], a, b, float32(1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.AbsDiffEq(outs["Series"], a, b, float32(0.9))
	require.NoError(t, err)
	assert.False(t, ok, "window tolerance truncates to zero")

	b.Samples = []float32{1, 2, 3}

	ok, err = ev.AbsDiffEq(outs["Series"], a, b, inf)
	require.NoError(t, err)
	assert.False(t, ok, "length mismatch")
}

func TestEvaluator_Union(t *testing.T) {
	ev, outs := setup(t, nil, location())
	loc := outs["Location"]
	inf := math.Inf(1)

	cases := []struct {
		name string
		a, b Location
		eps  float64
		want bool
	}{
		{"smooth close", Smooth{1, 2}, Smooth{1.001, 2}, 0.01, true},
		{"smooth far", Smooth{1, 2}, Smooth{1.1, 2}, 0.01, false},
		{"units", Origin{}, Origin{}, 0, true},
		{"cross variant", Smooth{}, Origin{}, inf, false},
		{"lattice within", Lattice(3), Lattice(4), 1.0, true},
		{"lattice truncated", Lattice(3), Lattice(4), 0.01, false},
		{"pointer variant", &Polar{R: 1}, &Polar{R: 1.001}, 0.01, true},
		{"nil operand", nil, Origin{}, inf, false},
		{"nil pointer variants", (*Polar)(nil), (*Polar)(nil), 1, true},
		{"one nil pointer variant", (*Polar)(nil), &Polar{R: 1}, inf, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := ev.AbsDiffEq(loc, tc.a, tc.b, tc.eps)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestEvaluator_NestedUnion(t *testing.T) {
	route := record("Route", false, field("From", ref("Location", descriptor.ClassUnion)))
	ev, outs := setup(t, nil, location(), route)

	ok, err := ev.AbsDiffEq(outs["Route"], Route{Smooth{1, 1}}, Route{Smooth{1, 1.001}}, 0.01)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.AbsDiffEq(outs["Route"], Route{Smooth{1, 1}}, Route{Origin{}}, math.Inf(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_CastPrecision(t *testing.T) {
	precise := func(cast descriptor.CastStrategy) *descriptor.Descriptor {
		d := record("Precise", false, field("V", f64, descriptor.Directives{Cast: descriptor.Ptr(cast)}))
		d.Directives.EpsilonType = &f32

		return d
	}

	a, b := Precise{1.0}, Precise{1.0 + 1e-12}

	ev, outs := setup(t, nil, precise(descriptor.CastField))
	ok, err := ev.AbsDiffEq(outs["Precise"], a, b, float32(0))
	require.NoError(t, err)
	assert.True(t, ok, "compared at float32")

	ev, outs = setup(t, nil, precise(descriptor.CastValue))
	ok, err = ev.AbsDiffEq(outs["Precise"], a, b, float32(0))
	require.NoError(t, err)
	assert.False(t, ok, "compared at float64")
}

func TestEvaluator_StaticEpsilon(t *testing.T) {
	count := record("Count", false, field("N", descriptor.Prim(primitive.KindInt64), descriptor.Directives{
		Cast:          descriptor.Ptr(descriptor.CastField),
		StaticEpsilon: src("2"),
	}))
	count.Directives.EpsilonType = &f64

	ev, outs := setup(t, nil, count)

	ok, err := ev.AbsDiffEq(outs["Count"], Count{10}, Count{12}, 0.0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.AbsDiffEq(outs["Count"], Count{10}, Count{13}, 100.0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func daysSinceEpoch(t time.Time) (float64, bool) {
	if t.IsZero() {
		return 0, false
	}

	return float64(t.Unix()) / 86400, true
}

func TestEvaluator_Mapped(t *testing.T) {
	event := func(dirs descriptor.Directives) *descriptor.Descriptor {
		return record("Event", false, field("Score", f64), field("At", ref("time.Time", descriptor.ClassOther), dirs))
	}

	reg := NewRegistry().Register("DaysSinceEpoch", daysSinceEpoch)
	mapped := descriptor.Directives{ValueMap: src("DaysSinceEpoch")}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a, b := Event{Score: 1, At: now}, Event{Score: 1, At: now.Add(time.Second)}

	ev, outs := setup(t, reg, event(mapped))

	ok, err := ev.AbsDiffEq(outs["Event"], a, b, 1.0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.AbsDiffEq(outs["Event"], a, Event{Score: 1}, math.Inf(1))
	require.NoError(t, err)
	assert.False(t, ok, "absent mapped value")

	both := mapped
	both.Equal = descriptor.Ptr(true)

	ev, outs = setup(t, reg, event(both))

	ok, err = ev.AbsDiffEq(outs["Event"], a, b, math.Inf(1))
	require.NoError(t, err)
	assert.False(t, ok, "equal wins over map")
}

func TestEvaluator_Generic(t *testing.T) {
	ev, outs := setup(t, nil, pair())
	a, b := Pair[float64]{1, 2}, Pair[float64]{1.05, 2}

	ok, err := ev.AbsDiffEq(outs["Pair"], a, b, 0.1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.AbsDiffEq(outs["Pair"], a, b, 0.01)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ev.AbsDiffEq(outs["Pair"], Pair[int]{1, 2}, Pair[int]{1, 2}, nil)
	require.NoError(t, err)
	assert.True(t, ok, "default bound from the operand type")
}

func TestEvaluator_Errors(t *testing.T) {
	withStatic := record("Static", false, field("V", f64, descriptor.Directives{StaticEpsilon: src("Unknown")}))
	ev, outs := setup(t, nil, withStatic, pair())

	_, err := ev.AbsDiffEq(outs["Static"], Precise{1}, Precise{1}, 0.0)
	assert.ErrorIs(t, err, ErrUnresolved)

	_, err = ev.RelativeEq(outs["Pair"], Pair[int]{1, 2}, Pair[int]{1, 2}, 0, 0)
	assert.ErrorIs(t, err, ErrNotFloat)

	nested := record("Holder", false, field("P", ref("Missing", descriptor.ClassRecord)))
	out, err := plan.Synthesize(nested)
	require.NoError(t, err)

	_, err = New(nil).AbsDiffEq(out, struct{ P int }{1}, struct{ P int }{1}, 0.0)
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestEvaluator_MapRequiresPresence(t *testing.T) {
	double := func(v float64) float64 { return 2 * v }
	reg := NewRegistry().Register("Double", double)

	d := record("Scaled", false, field("V", f64, descriptor.Directives{ValueMap: src("Double")}))
	ev, outs := setup(t, reg, d)

	_, err := ev.AbsDiffEq(outs["Scaled"], Precise{1}, Precise{1}, 1.0)
	assert.ErrorIs(t, err, ErrBadMap)
}
