package vocabulary

import (
	"errors"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for documents that fail the schema or reference unknown catalog values.
var ErrInvalid = errors.New("VOCABULARY_INVALID")

// Schema is the JSON schema of a vocabulary document.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "version": {"type": "string"},
    "brands": {"$ref": "#/definitions/table"},
    "categories": {"$ref": "#/definitions/table"}
  },
  "additionalProperties": false,
  "definitions": {
    "table": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "alias": {"type": "string", "minLength": 1},
          "canonical": {"type": "string", "minLength": 1}
        },
        "required": ["alias", "canonical"],
        "additionalProperties": false
      }
    }
  }
}`

// Load reads a YAML or JSON vocabulary file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates data against Schema and decodes it. JSON input is accepted as YAML.
func Parse(data []byte) (*Vocabulary, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(Schema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, errs)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for i := range v.Brands {
		v.Brands[i].Alias = Fold(v.Brands[i].Alias)
	}
	for i := range v.Categories {
		v.Categories[i].Alias = Fold(v.Categories[i].Alias)
	}
	return &v, nil
}

// Build returns the catalog defaults merged with the file at path, validated against the
// catalog. An empty path yields the defaults.
func Build(path string, brands, categories []string) (*Vocabulary, error) {
	v := Default(brands, categories)
	if path != "" {
		extra, err := Load(path)
		if err != nil {
			return nil, err
		}
		v = Merge(v, extra)
	}
	if err := v.Validate(brands, categories); err != nil {
		return nil, err
	}
	return v, nil
}
