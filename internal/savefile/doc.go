// Package savefile decodes the save container: the metadata header at the
// start of the file and the magic-delimited stream of zlib chunks that holds
// the serialized world.
//
// The two parts are decoded independently. DecodeHeader reads the fixed field
// sequence from offset 0. Decompress searches the whole file for the first
// chunk magic and inflates chunks from there until the stream ends.
//
// Chunk layout:
//
//	magic           uint32  0x9E2A83C1
//	archiveVersion  uint32
//	maxChunkSize    uint64  (ignored)
//	algorithm       uint8   only when archiveVersion == 0x22222222
//	compressedLen   uint64
//	uncompressedLen uint64  (informational)
//	repeatedSizes   16 or 24 bytes, see WithRepeatedSizesWidth
//	payload         compressedLen bytes of zlib data
//
// Header errors and a missing stream marker are fatal. Chunk inflate failures
// are tolerated according to the decoder's Policy and reported as diagnostics.
package savefile
