// Package tsv decodes the tab-separated text the KM3NeT database returns
// for stream queries. The first line is a header of field names, every
// following non-empty line one record with tab-separated values. Records
// exposes the rows as field-addressable records, Parse as a rectangular
// frame; callers wanting the raw payload simply keep the text.
package tsv
