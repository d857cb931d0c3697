// Package dataprocessing turns raw tabular sales uploads into cleaned
// transaction datasets.
//
// The package has three components:
//
//  1. Loader: reads CSV and Excel uploads into raw tables and resolves
//     the configured column mapping, failing fast when a required
//     column cannot be found.
//  2. Cleaner: applies the rescue rules row by row. Every correction
//     or rejection appends exactly one entry to the issue log; rows
//     are never silently mutated.
//  3. SampleGenerator: produces deterministic synthetic sales,
//     inventory and campaign tables for demos and tests.
//
// Secondary tables (inventory snapshots and campaign calendars) are
// parsed leniently: unknown columns are ignored and missing optional
// values fall back to configured defaults.
package dataprocessing
