package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a shipping or billing address stored as jsonb on orders.
type Address struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Street  string  `json:"street" validate:"required,max=300"`
	City    string  `json:"city" validate:"required,max=120"`
	State   string  `json:"state" validate:"required,max=120"`
	Zip     string  `json:"zip" validate:"required,max=20"`
	Country string  `json:"country" validate:"required,max=80"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// Missing lists the required fields that are blank.
func (a Address) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
		{"country", a.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// IsComplete reports whether every required field is present.
func (a Address) IsComplete() bool {
	return len(a.Missing()) == 0
}

// Value marshals the address as a JSON string so jsonb columns accept it
// under the simple query protocol.
func (a Address) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes a JSON encoded address.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(raw, a)
}
