package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderMissingEnv(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "")
	if err := Render(t.TempDir(), Params{Table: "remoteid_beacons"}); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderSuccess(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")

	dir := t.TempDir()
	if err := Render(dir, Params{Table: "beacons_test"}); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "grafana-dashboard.json"))
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	if !strings.Contains(string(b), `"uid": "uid1"`) {
		t.Fatalf("greptime uid not rendered")
	}
	if !strings.Contains(string(b), "FROM beacons_test") {
		t.Fatalf("table not rendered")
	}
	var v map[string]any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("dashboard is not valid JSON: %v", err)
	}
}
