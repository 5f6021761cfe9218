package render_test

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitashwath/qr-code-generator/render"
)

func TestPNGSizeAndColors(t *testing.T) {
	data, err := render.PNG(render.Options{
		Text:  "https://example.com",
		Size:  256,
		Light: "#ff0000",
		Dark:  "#0000ff",
		Level: render.LevelH,
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, 256, b.Dx())
	assert.Equal(t, 256, b.Dy())

	// The quiet zone in the corner is drawn in the light color.
	r, g, bl, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, bl})
}

func TestPNGExactSizeOrError(t *testing.T) {
	opts := render.Options{
		Text:  strings.Repeat("a", 500),
		Size:  render.MinSize,
		Light: "#fff",
		Dark:  "#000",
		Level: render.LevelH,
	}
	_, err := render.PNG(opts)
	require.ErrorIs(t, err, render.ErrInvalidSize)
	assert.Contains(t, err.Error(), "at least")

	opts.Size = 300
	data, err := render.PNG(opts)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestPNGErrors(t *testing.T) {
	cases := []struct {
		name string
		opts render.Options
		want error
	}{
		{"empty text", render.Options{Text: "  ", Size: 200, Light: "#fff", Dark: "#000"}, render.ErrEmptyText},
		{"too small", render.Options{Text: "x", Size: 10, Light: "#fff", Dark: "#000"}, render.ErrInvalidSize},
		{"too large", render.Options{Text: "x", Size: 5000, Light: "#fff", Dark: "#000"}, render.ErrInvalidSize},
		{"bad light", render.Options{Text: "x", Size: 200, Light: "white", Dark: "#000"}, render.ErrInvalidColor},
		{"bad dark", render.Options{Text: "x", Size: 200, Light: "#fff", Dark: "#12"}, render.ErrInvalidColor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := render.PNG(tc.opts)
			assert.True(t, errors.Is(err, tc.want), "got %v, want %v", err, tc.want)
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := render.ParseColor("#1a2B3c")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}, c)

	c, err = render.ParseColor("#abc")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}, c)

	for _, bad := range []string{"", "abc", "#abcd", "#gggggg", "#12345678"} {
		_, err := render.ParseColor(bad)
		assert.ErrorIs(t, err, render.ErrInvalidColor, bad)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]render.Level{"": render.LevelH, "l": render.LevelL, "M": render.LevelM, " q ": render.LevelQ, "H": render.LevelH} {
		got, err := render.ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := render.ParseLevel("X")
	assert.ErrorIs(t, err, render.ErrInvalidLevel)
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "QR_Code_2024-03-09.png", render.Filename(ts))
}

func TestWiFiPayload(t *testing.T) {
	got, err := render.WiFi{SSID: `My;Net`, Password: `p:a,ss"\`, Hidden: true}.Payload()
	require.NoError(t, err)
	assert.Equal(t, `WIFI:T:WPA;S:My\;Net;P:p\:a\,ss\"\\;H:true;;`, got)

	got, err = render.WiFi{SSID: "cafe", Password: "ignored", Security: "none"}.Payload()
	require.NoError(t, err)
	assert.Equal(t, "WIFI:T:nopass;S:cafe;;", got)

	_, err = render.WiFi{}.Payload()
	assert.ErrorIs(t, err, render.ErrMissingField)
}

func TestVCardPayload(t *testing.T) {
	got, err := render.VCard{Name: "Ada King Lovelace", Phone: "+44 20 1234", Email: "ada@example.com", Org: "Analytical, Ltd"}.Payload()
	require.NoError(t, err)
	want := "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Lovelace;Ada King\r\nFN:Ada King Lovelace\r\n" +
		"ORG:Analytical\\, Ltd\r\nTEL:+44 20 1234\r\nEMAIL:ada@example.com\r\nEND:VCARD"
	assert.Equal(t, want, got)

	_, err = render.VCard{Phone: "1"}.Payload()
	assert.ErrorIs(t, err, render.ErrMissingField)
}
