// Package lod implements a reader for Heroes of Might and Magic III .lod
// archives (H3sprite.lod, H3bitmap.lod and friends).
//
// An archive starts with a fixed header followed by a directory of
// 32-byte records. Each record names one entry, its position in the file,
// its decompressed size, a resource kind and, if the entry is
// zlib-compressed, its stored size.
//
// Entries are read with positional reads, so a single Archive may be
// fetched from by many goroutines at once.
package lod
