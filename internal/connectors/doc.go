// Package connectors holds the document sources a build reads its corpus
// from. The filesystem connector is the only source today.
package connectors
