// Package vecindex holds the brute-force similarity scan shared by the
// memory and SQLite vector collections: cosine distance, top-k ranking, and
// the little-endian float32 encoding used to persist embeddings.
//
// Collections here hold a few thousand chunks at most, so an exact linear
// scan is fast enough and keeps results deterministic.
package vecindex
