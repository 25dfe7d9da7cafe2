package itembank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{
  "items": [
    {
      "id": "math-count-1",
      "domain": "math",
      "discrimination": 1.2,
      "difficulty": -0.5,
      "guessing": 0.25,
      "min_age_months": 48,
      "max_age_months": 84,
      "content": {
        "type": "multiple_choice",
        "prompt": "How many apples?",
        "options": [{"id": "a", "label": "3"}, {"id": "b", "label": "4"}],
        "correct_answer": "b"
      }
    },
    {
      "domain": "logic",
      "discrimination": 0.9,
      "difficulty": 0.4,
      "guessing": 0,
      "min_age_months": 60,
      "max_age_months": 96,
      "active": false,
      "content": {"type": "sequence", "prompt": "Order these", "correct_answer": ["1", "2", "3"]}
    }
  ]
}`

const validYAML = `
items:
  - id: spatial-rot-1
    domain: spatial
    discrimination: 1.5
    difficulty: 0.2
    guessing: 0.2
    min_age_months: 54
    max_age_months: 90
    tags: [rotation]
    content:
      type: multiple_choice
      prompt: Which shape matches?
      correct_answer: c
`

func TestParseJSON(t *testing.T) {
	items, err := ParseJSON([]byte(validJSON))
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "math-count-1", first.ID)
	assert.Equal(t, DomainMath, first.Domain)
	assert.InDelta(t, 1.2, first.Params.A, 1e-12)
	assert.InDelta(t, -0.5, first.Params.B, 1e-12)
	assert.InDelta(t, 0.25, first.Params.C, 1e-12)
	assert.True(t, first.Active, "active defaults to true")
	assert.Equal(t, ScalarAnswer("b"), first.Content.CorrectAnswer)
	assert.Len(t, first.Content.Options, 2)

	second := items[1]
	assert.NotEmpty(t, second.ID, "missing id gets generated")
	assert.False(t, second.Active)
	assert.True(t, second.Content.CorrectAnswer.IsList)
}

func TestParseYAML(t *testing.T) {
	items, err := ParseYAML([]byte(validYAML))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, DomainSpatial, items[0].Domain)
	assert.Equal(t, []string{"rotation"}, items[0].Tags)
	assert.True(t, items[0].EligibleAt(60))
	assert.False(t, items[0].EligibleAt(91))
}

func TestParseJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no items", `{"items": []}`},
		{"unknown domain", `{"items":[{"domain":"music","discrimination":1,"difficulty":0,"guessing":0,"min_age_months":1,"max_age_months":2,"content":{"type":"t","prompt":"p","correct_answer":"a"}}]}`},
		{"zero discrimination", `{"items":[{"domain":"math","discrimination":0,"difficulty":0,"guessing":0,"min_age_months":1,"max_age_months":2,"content":{"type":"t","prompt":"p","correct_answer":"a"}}]}`},
		{"guessing of one", `{"items":[{"domain":"math","discrimination":1,"difficulty":0,"guessing":1,"min_age_months":1,"max_age_months":2,"content":{"type":"t","prompt":"p","correct_answer":"a"}}]}`},
		{"numeric answer", `{"items":[{"domain":"math","discrimination":1,"difficulty":0,"guessing":0,"min_age_months":1,"max_age_months":2,"content":{"type":"t","prompt":"p","correct_answer":5}}]}`},
		{"inverted window", `{"items":[{"domain":"math","discrimination":1,"difficulty":0,"guessing":0,"min_age_months":9,"max_age_months":2,"content":{"type":"t","prompt":"p","correct_answer":"a"}}]}`},
		{"duplicate id", `{"items":[
			{"id":"x","domain":"math","discrimination":1,"difficulty":0,"guessing":0,"min_age_months":1,"max_age_months":2,"content":{"type":"t","prompt":"p","correct_answer":"a"}},
			{"id":"x","domain":"math","discrimination":1,"difficulty":0,"guessing":0,"min_age_months":1,"max_age_months":2,"content":{"type":"t","prompt":"p","correct_answer":"a"}}]}`},
		{"not json", `items: []`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "bank.json")
	yamlPath := filepath.Join(dir, "bank.yml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(validJSON), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte(validYAML), 0o644))

	items, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
