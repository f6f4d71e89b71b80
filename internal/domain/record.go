package domain

// InternalKeyField is the storage-assigned key that never leaves the service.
const InternalKeyField = "_id"

// Record is a stored document as returned to clients.
// Fields pass through untouched; only the internal key is removed.
type Record map[string]any

// StripInternalKey removes the storage key in place and returns the record.
func (r Record) StripInternalKey() Record {
	delete(r, InternalKeyField)
	return r
}

// Get returns a field value as a string. ok is false when the field is
// absent or not a string.
func (r Record) Get(field string) (value string, ok bool) {
	v, found := r[field]
	if !found {
		return "", false
	}
	s, isString := v.(string)
	return s, isString
}
