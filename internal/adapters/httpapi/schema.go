package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var mandateCreateSchema = mustCompileSchema("schemas/mandate_create.json")

// schemaViolation lists every failing keyword location of a request body.
type schemaViolation struct {
	Errors []string
}

func (e *schemaViolation) Error() string {
	return "schema violation: " + strings.Join(e.Errors, "; ")
}

func mustCompileSchema(name string) *santhosh.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	compiler.AssertFormat = true
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return sch
}

func validateBody(sch *santhosh.Schema, body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("unmarshal body: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &schemaViolation{Errors: collectValidationErrors(ve)}
		}
		return &schemaViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.InstanceLocation+": "+ve.Message)
	}
	return msgs
}
