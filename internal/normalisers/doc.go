// Package normalisers provides implementations of the Normaliser interface
// for the document formats accepted by ingestion. Each normaliser knows how
// to extract text content from a specific MIME type.
//
// Normalisers are registered with a Registry at startup; the registry picks
// the highest-priority normaliser for each document.
package normalisers
