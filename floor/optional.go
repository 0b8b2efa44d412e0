package floor

import "encoding/json"

// OptionalString distinguishes an absent JSON field from an explicit
// null. Clearing a table assignment is sent as "table_id": null, which a
// plain *string cannot tell apart from the field being omitted.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
