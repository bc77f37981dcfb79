// Package report provides result export and summary output.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter, FullJSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown with a status chart for sharing
//   - CSVWriter, ExcelWriter: Spreadsheet exports, one row per business
//   - SQLiteWriter: Appends rows to the businesses table of a database
//
// Summarize computes the run statistics (counts, average confidence and the
// top businesses by confidence) shown by the text formats.
//
// Design decision: We separate report writing from the record type (which
// is in the model package) to follow the single responsibility principle.
// This allows adding new output formats without modifying the core data
// structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
