// Package config loads YAML override files that pin directives outside the
// source code.
//
// Overrides let a project derive comparisons for types whose declarations it
// does not want to annotate, or tune tolerances per build without touching
// tags.
//
// # Schema Overview
//
//	version: "1"
//	types:
//	  - type: geometry.Reading
//	    derive: relative
//	    epsilon_type: float64
//	    default_epsilon: "1e-6"
//	    fields:
//	      V2: cast_field
//	      Count: [cast_field, static_epsilon=4]
//	  - type: Location
//	    variants:
//	      Lattice:
//	        defaults: cast_value
//	        fields:
//	          "0": static_epsilon=1
//
// # Precedence
//
// Pinned field directives win over struct tags. Pinned type directives win
// over comment lines. Pinned variant defaults only fill entries that neither
// the tag nor the variant comment sets.
package config
