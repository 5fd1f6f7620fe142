package scenario

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// schemaPath is the definition every scenario is unified with.
var schemaPath = cue.ParsePath("#Scenario")

// Validate checks d against the embedded CUE schema.
func Validate(d Descriptor) error {
	ctx := cuecontext.New()
	def, err := scenarioDefinition(ctx)
	if err != nil {
		return err
	}

	// JSON is valid CUE, so the descriptor goes through its json tags.
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	v := ctx.CompileBytes(data, cue.Filename("scenario.json"))
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile scenario: %w", err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario does not match schema: %w", err)
	}
	return nil
}

// decodeCUE compiles a CUE scenario file, unifies it with the schema and
// decodes the result.
func decodeCUE(data []byte, filename string) (*Descriptor, error) {
	ctx := cuecontext.New()
	def, err := scenarioDefinition(ctx)
	if err != nil {
		return nil, err
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse CUE: %w", err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: scenario does not match schema: %w", ErrInvalid, err)
	}

	var d Descriptor
	if err := unified.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	return &d, nil
}

func scenarioDefinition(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile scenario schema: %w", err)
	}
	return schema.LookupPath(schemaPath), nil
}
