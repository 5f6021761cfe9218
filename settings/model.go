package settings

import (
	"errors"
	"fmt"

	"github.com/ajitashwath/qr-code-generator/history"
)

const (
	ThemeKey    = "theme"
	DefaultsKey = "qrDefaults"

	// DocumentVersion is written into every exported document.
	DocumentVersion = 1
)

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

// Toggled returns the other theme.
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Defaults are the size and colors new codes start with.
type Defaults struct {
	Size       int    `json:"size"`
	LightColor string `json:"lightColor"`
	DarkColor  string `json:"darkColor"`
}

// Document is the portable settings bundle written by Export.
type Document struct {
	Version           int              `json:"version"`
	ExportedAt        string           `json:"exportedAt"`
	Theme             Theme            `json:"theme"`
	DefaultSize       int              `json:"defaultSize"`
	DefaultLightColor string           `json:"defaultLightColor"`
	DefaultDarkColor  string           `json:"defaultDarkColor"`
	History           []history.Record `json:"history"`
}

// ImportResult names the document fields that were applied and skipped.
type ImportResult struct {
	Applied []string `json:"applied"`
	Skipped []string `json:"skipped"`
}

// FormatError is returned when an imported document is not a JSON object.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("settings: invalid document: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

var ErrInvalidTheme = errors.New("theme must be light or dark")
