// Package model defines the core data structures used throughout SchoolScan.
//
// This package contains the following main types:
//   - RawDocument: A fetched web page, alive only for one extraction call
//   - Extraction: Statements and the inspection report link found on a page
//   - ImprovementArea: One free-text improvement statement and its origin
//   - Institution: A school record from the national dataset
//   - MatchResult: A ranked solution bundle produced by the matcher
//   - Assessment: The aggregate that pipeline steps fill in for one school
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The extractor, matcher, pipeline, report and database packages
// all share these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
