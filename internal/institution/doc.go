// Package institution loads the national establishment dataset and looks
// schools up by name, URN or postcode.
//
// The dataset is the CSV export of the establishment register. Columns are
// matched by header name, so exports with extra or reordered columns load
// unchanged. Exports are frequently Windows-1252 encoded and may start with
// a byte order mark; both are handled.
package institution
