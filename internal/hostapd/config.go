// hostapd.conf rendering
package hostapd

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// DefaultConfPath is where hostapd looks for its configuration by default.
const DefaultConfPath = "/etc/hostapd/hostapd.conf"

//go:embed hostapd.conf.tmpl
var confTemplate string

var tpl = template.Must(template.New("hostapd.conf").Parse(confTemplate))

// Settings holds the static access point parameters written around the
// vendor element.
type Settings struct {
	Interface     string
	SSID          string
	HWMode        string
	Channel       int
	BeaconInt     int // kus
	DTIMPeriod    int
	MaxNumSta     int
	WPA           int // 0 disables WPA
	WPAPassphrase string
}

// DefaultSettings returns the parameters used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Interface:     "wlan0",
		SSID:          "test",
		HWMode:        "g",
		Channel:       1,
		BeaconInt:     100,
		DTIMPeriod:    2,
		MaxNumSta:     255,
		WPA:           2,
		WPAPassphrase: "c3b34bf61d9c061c0417f7ab8a49480f",
	}
}

// Render returns a complete hostapd.conf. An empty vendorElements leaves a
// commented example in place of the directive so the file stays valid.
func Render(s Settings, vendorElements string) string {
	var buf bytes.Buffer
	data := struct {
		Settings
		VendorElements string
	}{s, vendorElements}
	// Execute only fails on template or writer errors, neither possible here.
	_ = tpl.Execute(&buf, data)
	return buf.String()
}

// WriteFile replaces path with content. The data goes to a temporary file in
// the same directory first and is renamed over path, so hostapd never reads a
// partial file on reload.
func WriteFile(path, content string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync config: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
