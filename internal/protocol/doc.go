// Package protocol owns the primitive wire codec consumed by record schemes.
//
// Ownership boundary:
// - wire type identifiers and field/container headers
// - big-endian binary writer/reader
// - forward-compatible skipping of self-described values
// - size and depth limits for untrusted input
package protocol
