// Package inventory recovers an approximate object inventory from a
// decompressed save body.
//
// The Extractor does not decode the object table. It scans the body for
// placed-object references of the form
//
//	PersistentLevel.Build_ConstructorMk1_C_2147483647
//
// and keeps each distinct (class token, id) pair once. The resulting counts
// are a lower bound on what is really placed in the world.
//
// The Classifier turns base class names into display names and categories
// with two ordered rule lists. Rule order is significant: display rules are
// tried exactly first and then by substring in list order, and category rules
// are tried top to bottom with the first keyword hit winning.
package inventory
