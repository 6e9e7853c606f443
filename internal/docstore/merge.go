package docstore

import "encoding/json"

// MergeJSON overlays the top-level fields of doc onto an existing JSON
// object and returns the combined encoding. existing may be empty. Remote
// fields not present in doc survive the write, which is what gives Set its
// merge semantics in adapters built on whole-object storage.
func MergeJSON(existing []byte, doc any) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &fields); err != nil {
			return nil, err
		}
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	update := map[string]json.RawMessage{}
	if err := json.Unmarshal(encoded, &update); err != nil {
		return nil, err
	}
	for k, v := range update {
		fields[k] = v
	}
	return json.Marshal(fields)
}
