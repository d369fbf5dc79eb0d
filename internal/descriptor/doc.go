// Package descriptor defines the Type Descriptor consumed by the synthesis
// pipeline.
//
// A Descriptor is either a record (ordered fields) or a union (ordered
// variants, each with ordered fields). Fields carry optional directives;
// unions carry variant-level defaults already merged into their fields.
// Descriptors are built once per pipeline run and never mutated afterwards.
package descriptor
