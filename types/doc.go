// Package types defines the shared data model of the souschef extraction
// layer: declarative schema descriptors, parsed records with confidence
// tags, and the structured error taxonomy.
package types
