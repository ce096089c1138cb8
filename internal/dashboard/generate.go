package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed *.json.tmpl
var templateFS embed.FS

// Params fill the dashboard templates.
type Params struct {
	Table string // GreptimeDB beacon table
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
// Datasource uids come from the environment (GREPTIMEDB_DATASOURCE_UID).
func Render(outDir string, params Params) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	t, err := template.New("dashboards").Funcs(funcMap).ParseFS(templateFS, "*.json.tmpl")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, tpl := range t.Templates() {
		name := tpl.Name()
		if !strings.HasSuffix(name, ".tmpl") {
			continue
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := tpl.Execute(f, params); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
