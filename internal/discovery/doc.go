// Package discovery supplies the business listings that the enrichment
// pipeline works on.
//
// Source is the collaborator interface. FileSource reads leads from a CSV
// file with a header row, a YAML list or the first sheet of an Excel
// workbook, so listings exported from any directory or spreadsheet can be
// enriched without a browser-driven search step.
package discovery
