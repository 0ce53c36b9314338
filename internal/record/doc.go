// Package record implements descriptor-driven structured records and the two
// wire schemes used to move them.
//
// A Descriptor is the immutable field table for one record type: field id,
// name, declared type and presence. Descriptors are shared read-only by every
// Record built from them and may be read from any number of goroutines.
//
// A Record holds one value slot and one is-set bit per declared field. A
// field can be set to its zero value, and an unset field is never written by
// either scheme.
//
// # Schemes
//
// SchemeTagged writes each set field as (wire type, id, value) followed by a
// stop marker. Readers skip ids they do not know and ids whose wire type
// disagrees with their declaration, so old readers tolerate new writers.
//
// SchemeCompact writes REQUIRED values first, then a presence bit set over the
// remaining fields, then the set values in declaration order with no tags. It
// is smaller and has no tolerance for schema drift: both ends must share the
// same field count and order.
//
//	rec := record.New(desc)
//	_ = rec.Set(1, "cf1")
//	data, err := record.Marshal(rec, record.SchemeTagged)
//	...
//	out, err := record.Unmarshal(data, desc, record.SchemeTagged)
//
// The codec does no logging and no retries. Errors from the underlying
// protocol.Reader or protocol.Writer are returned unchanged.
package record
