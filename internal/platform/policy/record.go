package policy

import "encoding/json"

// Record is the generic shape projections operate on. Domain models convert
// themselves to a Record before filtering; projections never mutate their
// input and always hand back a fresh map.
type Record map[string]any

// RecordOf converts a domain model to a Record through its JSON encoding, so
// projection field names line up with the wire names handlers serialize.
func RecordOf(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// OwnerKey holds the subject id of the owning patient user, when the record
// is instance-owned. Projections for the PATIENT role compare it against the
// caller's subject id.
const OwnerKey = "ownerId"

// clone returns a shallow copy of the record.
func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// pick returns a new record holding only the listed fields, skipping fields
// the source record does not carry.
func (r Record) pick(fields ...string) Record {
	out := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

// strip returns a copy of the record without the listed fields.
func (r Record) strip(fields ...string) Record {
	out := r.clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// owner returns the owning subject id, or "" when the record carries none.
func (r Record) owner() string {
	s, _ := r[OwnerKey].(string)
	return s
}

// subMap returns the named field as a Record when it holds a map.
func (r Record) subMap(field string) (Record, bool) {
	switch v := r[field].(type) {
	case Record:
		return v, true
	case map[string]any:
		return Record(v), true
	}
	return nil, false
}

// mapList applies fn to every map element of the named list field, replacing
// the field with the transformed copies. Non-list and non-map elements are
// left untouched.
func (r Record) mapList(field string, fn func(Record) Record) {
	items, ok := r[field].([]any)
	if !ok {
		return
	}
	out := make([]any, len(items))
	for i, item := range items {
		switch m := item.(type) {
		case Record:
			out[i] = fn(m)
		case map[string]any:
			out[i] = fn(Record(m))
		default:
			out[i] = item
		}
	}
	r[field] = out
}
