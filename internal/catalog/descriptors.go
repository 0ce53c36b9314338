package catalog

import (
	"errors"

	"github.com/danmuck/recwire/internal/record"
)

var ErrNegativeMaxVersions = errors.New("catalog: max_versions must not be negative")

// Field ids of ColumnFamily.
const (
	ColumnFamilyName        int16 = 1
	ColumnFamilyAG          int16 = 2
	ColumnFamilyMaxVersions int16 = 3
	ColumnFamilyTTL         int16 = 4
)

// DefaultKeyFlag is the flag of an insert key.
const DefaultKeyFlag int32 = 255

var ColumnFamilyDesc = record.MustDescriptor("ColumnFamily", []record.FieldDescriptor{
	{ID: ColumnFamilyName, Name: "name", Type: record.StringType},
	{ID: ColumnFamilyAG, Name: "ag", Type: record.StringType},
	{ID: ColumnFamilyMaxVersions, Name: "max_versions", Type: record.I32Type},
	{ID: ColumnFamilyTTL, Name: "ttl", Type: record.StringType},
}, record.WithValidator(validateColumnFamily))

var AccessGroupDesc = record.MustDescriptor("AccessGroup", []record.FieldDescriptor{
	{ID: 1, Name: "name", Type: record.StringType},
	{ID: 2, Name: "in_memory", Type: record.BoolType},
	{ID: 3, Name: "replication", Type: record.I16Type},
	{ID: 4, Name: "blocksize", Type: record.I32Type},
	{ID: 5, Name: "compressor", Type: record.StringType},
	{ID: 6, Name: "bloom_filter", Type: record.StringType},
	{ID: 7, Name: "columns", Type: record.ListOf(record.StructOf(ColumnFamilyDesc))},
})

var SchemaDesc = record.MustDescriptor("Schema", []record.FieldDescriptor{
	{ID: 1, Name: "access_groups", Type: record.MapOf(record.StringType, record.StructOf(AccessGroupDesc))},
	{ID: 2, Name: "column_families", Type: record.MapOf(record.StringType, record.StructOf(ColumnFamilyDesc))},
})

var KeyDesc = record.MustDescriptor("Key", []record.FieldDescriptor{
	{ID: 1, Name: "row", Type: record.StringType, Presence: record.Default},
	{ID: 2, Name: "column_family", Type: record.StringType, Presence: record.Default},
	{ID: 3, Name: "column_qualifier", Type: record.StringType, Presence: record.Default},
	{ID: 4, Name: "timestamp", Type: record.I64Type},
	{ID: 5, Name: "revision", Type: record.I64Type},
	{ID: 6, Name: "flag", Type: record.I32Type, Presence: record.Default, Default: DefaultKeyFlag},
})

var CellDesc = record.MustDescriptor("Cell", []record.FieldDescriptor{
	{ID: 1, Name: "key", Type: record.StructOf(KeyDesc), Presence: record.Required},
	{ID: 2, Name: "value", Type: record.BinaryType},
})

var NamespaceListingDesc = record.MustDescriptor("NamespaceListing", []record.FieldDescriptor{
	{ID: 1, Name: "name", Type: record.StringType, Presence: record.Required},
	{ID: 2, Name: "is_namespace", Type: record.BoolType, Presence: record.Required},
})

// Descriptors lists every catalog table.
func Descriptors() []*record.Descriptor {
	return []*record.Descriptor{
		ColumnFamilyDesc,
		AccessGroupDesc,
		SchemaDesc,
		KeyDesc,
		CellDesc,
		NamespaceListingDesc,
	}
}

// Registry returns a fresh registry holding the catalog tables.
func Registry() *record.Registry {
	reg := record.NewRegistry()
	reg.MustRegister(Descriptors()...)
	return reg
}

func validateColumnFamily(r *record.Record) error {
	if n, ok := record.Field[int32](r, ColumnFamilyMaxVersions); ok && n < 0 {
		return ErrNegativeMaxVersions
	}
	return nil
}
