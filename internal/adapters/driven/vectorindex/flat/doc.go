// Package flat provides an exact inner-product vector index with a compact
// binary persistence format.
//
// The index scans every vector on search. With L2-normalised vectors the inner
// product equals cosine similarity, so scores fall in [-1, 1].
package flat
