// Package diagnostic provides structured errors, warnings and notes collected
// by the front end before synthesis.
//
// Key capabilities:
//   - Descriptor errors with their type, variant and field location
//   - Warnings for fields that can only be compared with ==
//   - A combined error that keeps the descriptor error sentinels reachable
package diagnostic
