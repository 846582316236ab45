// Package textutil provides text fingerprinting and similarity scoring.
//
// Translation memory uses it to find near-matches for a source string when
// no exact entry exists: fingerprints are normalized term-frequency vectors
// and candidates are ranked by cosine similarity. Tokenization is
// unicode-aware because source strings are frequently non-ASCII.
package textutil
