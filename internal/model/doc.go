// Package model defines the data structures shared by the savestat packages.
//
// This package contains the following main types:
//   - SaveHeader: the metadata block at the start of a save container
//   - Report: the result of one parse run (header, factory, totals)
//   - Tally, Factory, Totals: ordered count maps with stable JSON output
//   - Comparison: the inventory difference between two stored runs
//   - Optional: a present-or-absent value for best-effort fields
//
// Models live in their own package so that savefile, inventory, pipeline,
// report and database can share them without import cycles.
package model
