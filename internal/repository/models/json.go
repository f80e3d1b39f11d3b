package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// StringSlice is a []string stored in a JSONB column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		// nil slices are stored as an empty JSON array, never NULL
		return "[]", nil
	}
	jsonData, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	raw, err := jsonBytes(value, "StringSlice")
	if err != nil {
		return err
	}
	if raw == nil {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(s))
}

// Choice mirrors one element of the questions.choices JSONB array.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ChoiceList is a question's choices stored in a JSONB column.
type ChoiceList []Choice

// Value implements the driver.Valuer interface
func (c ChoiceList) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal([]Choice(c))
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (c *ChoiceList) Scan(value interface{}) error {
	raw, err := jsonBytes(value, "ChoiceList")
	if err != nil {
		return err
	}
	if raw == nil {
		*c = ChoiceList{}
		return nil
	}
	return json.Unmarshal(raw, (*[]Choice)(c))
}

// jsonBytes normalises a driver value holding JSON. A nil result means the
// column was NULL, empty, or the literal null.
func jsonBytes(value interface{}, typeName string) ([]byte, error) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil, errors.New(typeName + " Scan: unsupported type " + fmt.Sprintf("%T", value))
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}
