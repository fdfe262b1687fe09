package nullable

import (
	"database/sql"
	"encoding/json/v2"
	"time"
)

// Time in `nullable` package
// implements: sql.Scanner by embedding sql.NullTime
// implements: json.Marshaler and json.Unmarshaler
type Time struct {
	sql.NullTime
}

func NewTime(t time.Time) Time {
	return Time{sql.NullTime{Time: t, Valid: true}}
}

func (n *Time) MarshalJSON() ([]byte, error) {
	if n.Valid {
		return json.Marshal(n.Time)
	}
	return []byte("null"), nil
}

func (n *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.Valid = false
		n.Time = time.Time{}
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	n.Time = t
	n.Valid = true
	return nil
}

func (n *Time) ForceValue() time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return n.Time
}

func (n *Time) IsNil() bool {
	return !n.Valid
}
