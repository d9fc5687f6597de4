// Package pipeline runs the steps that turn an institution into an assessment.
//
// DefaultPipeline builds the usual sequence:
//
//	collect_areas        inspection priorities, strategies and user priorities
//	extract_website      published strategy and report link (skipped with --no-fetch)
//	report_url_fallback  configured report URL when the website had none
//	match_solutions      ranks the catalog; refuses when there are no areas
//
// Each stage is a Step that receives the *model.Assessment and may modify it.
// Leaving a step out is how the CLI switches features off, so steps never
// call each other.
//
// BatchProcessor runs one pipeline per institution with bounded
// concurrency through errgroup.
package pipeline
