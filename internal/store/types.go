package store

import "encoding/json"

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// ReadJSON decodes the document stored at key into v. An absent key leaves
// v untouched. Malformed stored JSON is treated as an empty document at
// this boundary rather than propagated as a failure; the worst case for a
// corrupted key is starting that collection over.
func ReadJSON(kv KV, key string, v any) error {
	raw, err := kv.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil
	}
	return nil
}

func WriteJSON(kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(key, raw)
}
