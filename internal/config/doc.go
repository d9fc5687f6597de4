// Package config provides configuration structures and utilities for SchoolScan.
// It defines the options for looking up institutions, fetching their
// websites, storing results and choosing report formats, and the
// .schoolscan file that holds per-school inputs.
package config
