package models

import "encoding/json"

type League struct {
	ID      int    `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Cluster string `json:"cluster" db:"cluster"`
	Active  bool   `json:"active" db:"active"`

	// SettingsJSON is the raw settings column; use Settings to decode.
	SettingsJSON *string `json:"-" db:"settings_json"`
}

// Settings decodes the raw settings column into a flat key→value map.
// A missing or empty column yields an empty map, never an error; individual
// malformed values are handled by the typed accessors downstream.
func (l *League) Settings() (map[string]string, error) {
	if l.SettingsJSON == nil || *l.SettingsJSON == "" {
		return map[string]string{}, nil
	}
	var settings map[string]string
	if err := json.Unmarshal([]byte(*l.SettingsJSON), &settings); err != nil {
		return nil, err
	}
	return settings, nil
}
