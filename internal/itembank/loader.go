package itembank

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/cogcat/internal/irt"
)

// itemFileSchema describes an item-bank import file.
var itemFileSchema = map[string]any{
	"type":     "object",
	"required": []any{"items"},
	"properties": map[string]any{
		"items": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"required": []any{
					"domain", "discrimination", "difficulty", "guessing",
					"min_age_months", "max_age_months", "content",
				},
				"properties": map[string]any{
					"id":             map[string]any{"type": "string", "minLength": 1},
					"domain":         map[string]any{"enum": []any{"math", "logic", "verbal", "spatial", "memory"}},
					"discrimination": map[string]any{"type": "number", "exclusiveMinimum": 0},
					"difficulty":     map[string]any{"type": "number"},
					"guessing":       map[string]any{"type": "number", "minimum": 0, "exclusiveMaximum": 1},
					"min_age_months": map[string]any{"type": "integer", "minimum": 0},
					"max_age_months": map[string]any{"type": "integer", "minimum": 0},
					"active":         map[string]any{"type": "boolean"},
					"tags":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"content": map[string]any{
						"type":     "object",
						"required": []any{"type", "prompt", "correct_answer"},
						"properties": map[string]any{
							"type":         map[string]any{"type": "string", "minLength": 1},
							"prompt":       map[string]any{"type": "string", "minLength": 1},
							"prompt_audio": map[string]any{"type": "string"},
							"instructions": map[string]any{"type": "string"},
							"options": map[string]any{
								"type": "array",
								"items": map[string]any{
									"type":     "object",
									"required": []any{"id", "label"},
									"properties": map[string]any{
										"id":    map[string]any{"type": "string"},
										"label": map[string]any{"type": "string"},
									},
								},
							},
							"correct_answer": map[string]any{
								"oneOf": []any{
									map[string]any{"type": "string", "minLength": 1},
									map[string]any{
										"type":     "array",
										"minItems": 1,
										"items":    map[string]any{"type": "string"},
									},
								},
							},
						},
					},
				},
			},
		},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func itemSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a parsed JSON value, not Go literals.
		defBytes, err := json.Marshal(itemFileSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const url = "schema://item-file.json"
		if err := c.AddResource(url, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(url)
	})
	return compiledSchema, compileErr
}

type itemFile struct {
	Items []fileItem `json:"items"`
}

type fileItem struct {
	ID             string   `json:"id"`
	Domain         Domain   `json:"domain"`
	Discrimination float64  `json:"discrimination"`
	Difficulty     float64  `json:"difficulty"`
	Guessing       float64  `json:"guessing"`
	MinAgeMonths   int      `json:"min_age_months"`
	MaxAgeMonths   int      `json:"max_age_months"`
	Active         *bool    `json:"active"`
	Tags           []string `json:"tags"`
	Content        Content  `json:"content"`
}

// LoadFile reads an item-bank file. Files ending in .yaml or .yml are parsed
// as YAML; anything else as JSON.
func LoadFile(path string) ([]TestItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(raw)
	}
	return ParseJSON(raw)
}

// ParseYAML parses and validates a YAML item file.
func ParseYAML(raw []byte) ([]TestItem, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	// Round-trip through JSON so validation and decoding share one path.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return ParseJSON(b)
}

// ParseJSON parses and validates a JSON item file.
func ParseJSON(raw []byte) ([]TestItem, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	schema, err := itemSchema()
	if err != nil {
		return nil, fmt.Errorf("compile item schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("item file failed validation: %w", err)
	}

	var f itemFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	seen := make(map[string]bool, len(f.Items))
	items := make([]TestItem, 0, len(f.Items))
	for i, fi := range f.Items {
		if fi.MinAgeMonths > fi.MaxAgeMonths {
			return nil, fmt.Errorf("item %d: min_age_months %d exceeds max_age_months %d",
				i, fi.MinAgeMonths, fi.MaxAgeMonths)
		}
		id := fi.ID
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return nil, fmt.Errorf("item %d: duplicate id %q", i, id)
		}
		seen[id] = true

		active := true
		if fi.Active != nil {
			active = *fi.Active
		}
		items = append(items, TestItem{
			ID:     id,
			Domain: fi.Domain,
			Params: irt.ItemParams{
				A: fi.Discrimination,
				B: fi.Difficulty,
				C: fi.Guessing,
			},
			MinAgeMonths: fi.MinAgeMonths,
			MaxAgeMonths: fi.MaxAgeMonths,
			Content:      fi.Content,
			Tags:         fi.Tags,
			Active:       active,
		})
	}
	return items, nil
}
