package history

import (
	"errors"
	"time"
)

const (
	// StorageKey is the store key holding the serialized record list.
	StorageKey = "qrHistory"
	// MaxRecords caps the list; older records are evicted first.
	MaxRecords = 20
	// MaxTextLen is the largest payload a QR symbol can carry in byte mode.
	MaxTextLen = 2953

	// Style used for stored records whose size or colors are invalid.
	FallbackLightColor = "#ffffff"
	FallbackDarkColor  = "#000000"

	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Record is one remembered QR generation request.
type Record struct {
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"` // ISO-8601, UTC
	Size       int    `json:"size"`
	LightColor string `json:"lightColor"`
	DarkColor  string `json:"darkColor"`
}

// Time parses Timestamp. The zero time is returned if it is malformed.
func (r Record) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTimestamp renders t the way records store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

var (
	ErrNotFound    = errors.New("history record not found")
	ErrTextTooLong = errors.New("text exceeds QR capacity")
)
