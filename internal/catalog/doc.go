// Package catalog holds the solution catalog and the standards taxonomy.
//
// The catalog is a YAML document embedded in the binary (data/catalog.yaml)
// and may be replaced by a user-supplied file. It lists solution entries in
// tie-break order, the standards they reference, the scoring weights and the
// context boosts applied by the matcher.
//
// A loaded Catalog is immutable. All accessors return copies, so a Catalog
// can be shared freely between goroutines.
//
// Loading validates the document in two passes:
//  1. Struct-level rules (required fields, non-empty lists, positive points)
//     via github.com/go-playground/validator/v10.
//  2. Cross-references: unique keys, an existing default solution, standard
//     tags that resolve, and boosts that name existing solutions.
//
// Any failure is reported as ErrConfigurationDefect. A defective catalog is
// the only condition that stops SchoolScan before it does any work.
package catalog
