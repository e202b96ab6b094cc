// Package metrics provides internal metrics collection for the extraction
// layer. This package is internal and should not be imported by external
// projects.
package metrics
