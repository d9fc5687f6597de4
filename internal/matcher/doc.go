// Package matcher ranks catalog solutions against improvement statements.
//
// Scoring is additive lexical overlap:
//   - each catalog keyword found (case-insensitively) in an area adds the
//     keyword weight, once per keyword per area
//   - each significant title word found in an area adds the title weight
//   - context boosts add fixed points when the institution's phase or type
//     label contains a configured term
//
// Entries are stable-sorted by descending score, so catalog order breaks
// ties. Up to five positively scored entries are returned; when nothing
// scores, the catalog's default solution is returned with a score of 1.
//
// A Matcher performs no I/O and is safe for concurrent use.
package matcher
