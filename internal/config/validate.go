// CUE schema validation code
package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// ValidateWithCue validates YAML configuration bytes against the embedded
// schema. Unknown keys are rejected.
func ValidateWithCue(filename string, yamlBytes []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	file, err := yaml.Extract(filename, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	final := def.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
