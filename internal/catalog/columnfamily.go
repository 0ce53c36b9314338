package catalog

import (
	"fmt"

	"github.com/danmuck/recwire/internal/record"
)

// ColumnFamily is the typed view of a ColumnFamily record. Getters return the
// zero value for unset fields; use the IsSet methods to tell them apart.
type ColumnFamily struct {
	rec *record.Record
}

func NewColumnFamily() *ColumnFamily {
	return &ColumnFamily{rec: record.New(ColumnFamilyDesc)}
}

// ColumnFamilyFrom wraps r without copying it.
func ColumnFamilyFrom(r *record.Record) (*ColumnFamily, error) {
	if r == nil || r.Descriptor() != ColumnFamilyDesc {
		return nil, fmt.Errorf("catalog: not a ColumnFamily record")
	}
	return &ColumnFamily{rec: r}, nil
}

// UnmarshalColumnFamily decodes data written with scheme s.
func UnmarshalColumnFamily(data []byte, s record.Scheme) (*ColumnFamily, error) {
	r, err := record.Unmarshal(data, ColumnFamilyDesc, s)
	if err != nil {
		return nil, err
	}
	return &ColumnFamily{rec: r}, nil
}

func (cf *ColumnFamily) Record() *record.Record {
	return cf.rec
}

func (cf *ColumnFamily) Marshal(s record.Scheme) ([]byte, error) {
	return record.Marshal(cf.rec, s)
}

func (cf *ColumnFamily) Name() string {
	v, _ := record.Field[string](cf.rec, ColumnFamilyName)
	return v
}

func (cf *ColumnFamily) IsSetName() bool {
	return cf.rec.IsSet(ColumnFamilyName)
}

func (cf *ColumnFamily) SetName(v string) *ColumnFamily {
	cf.set(ColumnFamilyName, v)
	return cf
}

func (cf *ColumnFamily) UnsetName() {
	cf.rec.Unset(ColumnFamilyName)
}

func (cf *ColumnFamily) AG() string {
	v, _ := record.Field[string](cf.rec, ColumnFamilyAG)
	return v
}

func (cf *ColumnFamily) IsSetAG() bool {
	return cf.rec.IsSet(ColumnFamilyAG)
}

func (cf *ColumnFamily) SetAG(v string) *ColumnFamily {
	cf.set(ColumnFamilyAG, v)
	return cf
}

func (cf *ColumnFamily) UnsetAG() {
	cf.rec.Unset(ColumnFamilyAG)
}

func (cf *ColumnFamily) MaxVersions() int32 {
	v, _ := record.Field[int32](cf.rec, ColumnFamilyMaxVersions)
	return v
}

func (cf *ColumnFamily) IsSetMaxVersions() bool {
	return cf.rec.IsSet(ColumnFamilyMaxVersions)
}

func (cf *ColumnFamily) SetMaxVersions(v int32) *ColumnFamily {
	cf.set(ColumnFamilyMaxVersions, v)
	return cf
}

func (cf *ColumnFamily) UnsetMaxVersions() {
	cf.rec.Unset(ColumnFamilyMaxVersions)
}

func (cf *ColumnFamily) TTL() string {
	v, _ := record.Field[string](cf.rec, ColumnFamilyTTL)
	return v
}

func (cf *ColumnFamily) IsSetTTL() bool {
	return cf.rec.IsSet(ColumnFamilyTTL)
}

func (cf *ColumnFamily) SetTTL(v string) *ColumnFamily {
	cf.set(ColumnFamilyTTL, v)
	return cf
}

func (cf *ColumnFamily) UnsetTTL() {
	cf.rec.Unset(ColumnFamilyTTL)
}

func (cf *ColumnFamily) Validate() error {
	return cf.rec.Validate()
}

func (cf *ColumnFamily) Equal(o *ColumnFamily) bool {
	return cf.rec.Equal(o.rec)
}

func (cf *ColumnFamily) Compare(o *ColumnFamily) int {
	return cf.rec.Compare(o.rec)
}

func (cf *ColumnFamily) DeepCopy() *ColumnFamily {
	return &ColumnFamily{rec: cf.rec.DeepCopy()}
}

func (cf *ColumnFamily) String() string {
	return cf.rec.String()
}

// set cannot fail: ids and value types are fixed by the accessors.
func (cf *ColumnFamily) set(id int16, v any) {
	mustSet(cf.rec, id, v)
}
