// Package metaschema validates a parsed YAML document against the
// structural shape of the declarative schema surface (spec.md §6: "The
// document is validated against an embedded meta-schema before being
// consumed") before pkg/model ever attempts to decode it into the YAML
// Model.
package metaschema

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

//go:embed schema.json
var schemaJSON []byte

const resourceID = "pgdeclare://schema.json"

var compiled *jsonschema.Schema

func schema() (*jsonschema.Schema, error) {
	if compiled != nil {
		return compiled, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("metaschema: decoding embedded schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceID, doc); err != nil {
		return nil, fmt.Errorf("metaschema: adding embedded schema resource: %w", err)
	}

	sch, err := c.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("metaschema: compiling embedded schema: %w", err)
	}
	compiled = sch
	return compiled, nil
}

// ValidateYAML decodes raw (a full YAML document) and validates it against
// the embedded meta-schema, returning a *jsonschema.ValidationError (wrapped)
// when the document's shape is wrong.
func ValidateYAML(raw []byte) error {
	jsonBytes, err := sigsyaml.YAMLToJSON(raw)
	if err != nil {
		return fmt.Errorf("metaschema: converting document to JSON: %w", err)
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonBytes))
	if err != nil {
		return fmt.Errorf("metaschema: decoding document: %w", err)
	}

	return Validate(v)
}

// ValidateNode validates an already-parsed YAML document node, re-encoding
// it to bytes first. Used by pkg/deploy, which receives a *yaml.Node rather
// than the raw file contents.
func ValidateNode(root *yaml.Node) error {
	raw, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("metaschema: re-encoding document: %w", err)
	}
	return ValidateYAML(raw)
}

// Validate checks a document already decoded into plain Go values (as
// produced by encoding/json or jsonschema.UnmarshalJSON) against the
// embedded meta-schema.
func Validate(doc any) error {
	sch, err := schema()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("document does not match the declarative schema surface: %w", err)
	}
	return nil
}
