// Package html extracts readable text from saved HTML pages.
package html
