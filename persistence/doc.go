// Package persistence stores spectrum datasets and coefficient stores in a
// self-describing binary format.
//
// Every file has the layout
//
//	magic "ISW1" | version u16 | kind u8 | compression u8
//	| codec-name len u8 | codec name
//	| metadata len u32 | metadata (codec-encoded)
//	| payload len u64  | payload blocks
//	| crc32 u32
//
// All integers are little-endian. The payload holds float64 spectra or
// complex128 coefficients (real then imaginary part) and is split into
// blocks that are individually LZ4 or zstd compressed. The trailing CRC32
// (IEEE) covers every preceding byte.
package persistence
