// Package gen renders synthesized comparison procedures as Go source.
//
// Generation uses text/template + go/format. Expression trees are printed
// by a small renderer; the template only lays out functions.
//
// Rendered shapes:
//   - Records: DefaultEpsilon/AbsDiffEq (and DefaultMaxRelative/RelativeEq)
//     methods on the value type
//   - Unions and generic records: package functions prefixed with the type
//     name, e.g. ShapeAbsDiffEq, dispatching on variants with a type switch
//   - Numeric leaves call the approx runtime, nested records their methods
//   - value_map fields compare the comma-ok results of the map
//   - into_iter fields compare element-wise through approx.Pairwise
package gen
