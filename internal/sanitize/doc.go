// Package sanitize converts arbitrary, possibly cyclic or binary-laden tag
// trees into values that are always safe to marshal as JSON and store in a
// text column.
//
// Sanitize never panics and never returns nothing: individual values that
// cannot be converted degrade to marker strings, and a catastrophic failure
// of the whole walk degrades to a fallback object carrying the original
// top-level key names. Strings in the result contain no raw control
// characters.
package sanitize
