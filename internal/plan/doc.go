// Package plan synthesizes comparison procedures from type descriptors.
//
// Synthesis pipeline:
//  1. Link descriptors → nested record and union fields learn their tolerance type
//  2. Resolve the tolerance type → epsilon_type, first retained field, or float64
//  3. For each field, in declaration order:
//     - Drop skipped fields
//     - Select a strategy: equal, then map, then into_iter, then a tolerance call
//     - Reconcile the field type with the tolerance type through its cast
//  4. Assemble the record conjunction or the union dispatch per comparison
//  5. Derive the generic constraints each procedure needs
//
// The result is an Output holding both procedures as expr trees, rendered by
// package gen or interpreted by package eval.
package plan
