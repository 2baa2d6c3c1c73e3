// Package normalisers turns document files into per-page text.
//
// Each subpackage provides an Extractor for one file format; the Registry
// picks the highest-priority extractor for a file's extension. The text
// subpackage then cleans the extracted pages before chunking.
package normalisers
