// Package render turns text into QR code images and builds the structured
// text payloads (WiFi, vCard) that phones recognize when scanning.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	MinSize     = 50
	MaxSize     = 2000
	DefaultSize = 200
)

var (
	ErrEmptyText    = errors.New("text is empty")
	ErrInvalidSize  = fmt.Errorf("size must be between %d and %d", MinSize, MaxSize)
	ErrInvalidColor = errors.New("color must be #rgb or #rrggbb")
	ErrInvalidLevel = errors.New("error correction level must be L, M, Q or H")
	// ErrEncode wraps failures of the QR encoder itself, usually text too long
	// for the chosen error correction level.
	ErrEncode = errors.New("text cannot be encoded")
)

// Level is a QR error correction level.
type Level string

const (
	LevelL Level = "L"
	LevelM Level = "M"
	LevelQ Level = "Q"
	LevelH Level = "H"
)

// ParseLevel accepts L, M, Q or H in either case. Empty means H.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelL:
		return LevelL, nil
	case LevelM:
		return LevelM, nil
	case LevelQ:
		return LevelQ, nil
	case LevelH, "":
		return LevelH, nil
	}
	return "", ErrInvalidLevel
}

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelL:
		return qrcode.Low
	case LevelM:
		return qrcode.Medium
	case LevelQ:
		return qrcode.High
	default:
		return qrcode.Highest
	}
}

// Options describes one image.
type Options struct {
	Text  string
	Size  int
	Light string
	Dark  string
	Level Level
}

// PNG renders opts as a square PNG of opts.Size pixels.
func PNG(opts Options) ([]byte, error) {
	text := strings.TrimSpace(opts.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := ValidateSize(opts.Size); err != nil {
		return nil, err
	}
	light, err := ParseColor(opts.Light)
	if err != nil {
		return nil, fmt.Errorf("light color: %w", err)
	}
	dark, err := ParseColor(opts.Dark)
	if err != nil {
		return nil, fmt.Errorf("dark color: %w", err)
	}

	q, err := qrcode.New(text, opts.Level.recovery())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	// The encoder silently grows images smaller than one pixel per module.
	if n := len(q.Bitmap()); n > opts.Size {
		return nil, fmt.Errorf("%w: text needs at least %d px", ErrInvalidSize, n)
	}
	q.BackgroundColor = light
	q.ForegroundColor = dark
	return q.PNG(opts.Size)
}

// Filename is the download name for an image generated at t.
func Filename(t time.Time) string {
	return "QR_Code_" + t.UTC().Format("2006-01-02") + ".png"
}

// ValidateSize reports ErrInvalidSize for sizes outside [MinSize, MaxSize].
func ValidateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return ErrInvalidSize
	}
	return nil
}

// ParseColor parses "#rgb" or "#rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, ErrInvalidColor
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.RGBA{}, ErrInvalidColor
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, ErrInvalidColor
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
