// Package results implements the result variants built from
// specification parser stages.
//
// Four variants exist:
//
//   - Empty: a literal value, used when a block has no result file
//   - Tabular: a delimited row file iterated hit by hit
//   - SortedTabular: a tabular result over a sorted copy of its source
//   - SQLite: a tabular result whose rows are written into a database file
//
// Variants are selected by type tag through a Registry; their
// properties are applied by name through SetProperty. Derived files are
// produced through an ondemand.Loader so each is built at most once per
// run and only when missing or stale.
package results
