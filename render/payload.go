package render

import (
	"errors"
	"strings"
)

var ErrMissingField = errors.New("required field missing")

// WiFi network credentials in the format Android and iOS cameras join from.
type WiFi struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
	Security string `json:"security"` // WPA, WEP or nopass
	Hidden   bool   `json:"hidden"`
}

// Payload renders WIFI:T:<sec>;S:<ssid>;P:<pass>;H:true;;
func (w WiFi) Payload() (string, error) {
	if w.SSID == "" {
		return "", ErrMissingField
	}
	sec := strings.ToUpper(strings.TrimSpace(w.Security))
	switch sec {
	case "", "WPA2", "WPA3":
		sec = "WPA"
	case "NONE", "OPEN", "NOPASS":
		sec = "nopass"
	}

	var b strings.Builder
	b.WriteString("WIFI:T:")
	b.WriteString(sec)
	b.WriteString(";S:")
	b.WriteString(escapeWiFi(w.SSID))
	if sec != "nopass" && w.Password != "" {
		b.WriteString(";P:")
		b.WriteString(escapeWiFi(w.Password))
	}
	if w.Hidden {
		b.WriteString(";H:true")
	}
	b.WriteString(";;")
	return b.String(), nil
}

var wifiEscaper = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	`:`, `\:`,
	`"`, `\"`,
)

func escapeWiFi(s string) string { return wifiEscaper.Replace(s) }

// VCard is a minimal contact card.
type VCard struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Org   string `json:"org"`
	URL   string `json:"url"`
}

// Payload renders a vCard 3.0 block with CRLF line endings.
func (v VCard) Payload() (string, error) {
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return "", ErrMissingField
	}

	lines := []string{"BEGIN:VCARD", "VERSION:3.0"}
	lines = append(lines, "N:"+escapeVCard(structuredName(name)))
	lines = append(lines, "FN:"+escapeVCard(name))
	if v.Org != "" {
		lines = append(lines, "ORG:"+escapeVCard(v.Org))
	}
	if v.Phone != "" {
		lines = append(lines, "TEL:"+escapeVCard(v.Phone))
	}
	if v.Email != "" {
		lines = append(lines, "EMAIL:"+escapeVCard(v.Email))
	}
	if v.URL != "" {
		lines = append(lines, "URL:"+v.URL)
	}
	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\r\n"), nil
}

// structuredName turns "Ada King Lovelace" into "Lovelace;Ada King".
func structuredName(full string) string {
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return full
	}
	last := parts[len(parts)-1]
	return last + ";" + strings.Join(parts[:len(parts)-1], " ")
}

var vcardEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	"\n", `\n`,
)

func escapeVCard(s string) string { return vcardEscaper.Replace(s) }
