// Package main provides the entry point for the SchoolScan CLI.
//
// SchoolScan turns a school's inspection priorities and published
// strategy into a tailored iPad implementation report. It looks the
// school up in the establishment dataset, reads the school website for
// strategic statements, and ranks a catalog of solution bundles against
// the collected improvement areas.
//
// Usage:
//
//	schoolscan search <name|urn|postcode>
//	schoolscan report <urn>...
//	schoolscan history <urn>
//
// See --help for all available options.
package main

// main is the entry point for SchoolScan.
func main() {
	Execute()
}
