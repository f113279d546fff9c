// Package analysis derives analytics fields from chat queries and replies.
//
// Every function is pure and total: empty or degenerate input yields a
// defined default rather than an error.
package analysis
