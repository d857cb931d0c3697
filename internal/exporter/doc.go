// Package exporter renders cleaned datasets, issue logs, and KPI
// snapshots as CSV, either to files under the exports directory or
// streamed straight into an HTTP response.
//
// CSVWriter handles file output with UTF-8 BOM for Excel compatibility;
// the dataset functions turn domain values into header/record pairs.
package exporter
