// Package eval interprets synthesized comparison procedures with reflection.
//
// It is the reference back end for the expression trees built by package
// plan: a procedure evaluated here answers the same as the Go code package
// gen renders for it. User expressions (static tolerances, defaults and map
// functions) are resolved through a Registry, either as registered values or
// as constant expressions.
//
//	reg := eval.NewRegistry().
//		Register("DaysSinceEpoch", geometry.DaysSinceEpoch).
//		RegisterOutput(outputs...)
//
//	ok, err := eval.New(reg).AbsDiffEq(out, a, b, 0.01)
//
// Fields are read by name, so values of unexported fields can be compared but
// not passed to map functions.
package eval
