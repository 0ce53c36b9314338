// Package catalog declares the descriptor tables of the Hypertable thrift
// records served by recwire and typed accessors for ColumnFamily.
//
// The tables here are what a schema compiler would emit: one immutable
// record.Descriptor per struct, shared by every instance.
package catalog
