// Package main provides the entry point for the savestat CLI.
//
// savestat reads factory-building save files and reports how many buildings
// of each kind the world contains.
//
// Usage:
//
//	savestat parse <save-file>
//	savestat parse --text saves/*.sav
//	savestat history <session>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
