// Package binread provides a bounds-checked, cursor-tracked decoder for the
// little-endian primitives and length-prefixed strings used by save containers.
//
// Strings carry a signed 32-bit length prefix:
//   - 0 is the empty string
//   - a positive length N is N bytes of UTF-8 including a trailing NUL
//   - a negative length -N is N UTF-16LE code units including a trailing NUL
//
// Every read checks the remaining buffer first and fails with
// ErrUnexpectedEOF instead of panicking. String reads are additionally capped
// by a sanity ceiling so that a corrupted length cannot trigger a huge
// allocation; exceeding it yields ErrMalformedLength.
package binread
