package models

import (
	"encoding/json"
	"time"
)

// Preset is a named, saved set of dashboard controls. Controls holds the
// JSON encoding of the control state; catalog data is never stored.
type Preset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Controls  json.RawMessage `json:"controls"`
	CreatedAt time.Time       `json:"created_at"`
}
