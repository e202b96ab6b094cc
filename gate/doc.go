// Package gate is the single entry point business code uses to obtain
// schema-valid records from a language model.
//
// A request is cache-first, quota-checked, and failure-tolerant: every
// outcome (cache hit, quota denial, parsed result, failure) is a Result
// variant, never a panic or an unhandled error.
package gate
