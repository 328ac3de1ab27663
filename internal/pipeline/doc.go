// Package pipeline runs a save file through the parse stages.
//
// A single file goes through read, header, decompress, extract and classify
// strictly in order. Each stage is a Step that reads the Run produced so far
// and adds its own part. A Step error is fatal and stops the run; anything
// recoverable becomes a report diagnostic and is logged.
//
// Several files can be parsed at once with BatchProcessor, which bounds the
// concurrency with errgroup.
package pipeline
