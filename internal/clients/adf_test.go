package clients

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "Empty field",
			raw:      "",
			expected: "",
		},
		{
			name:     "Null field",
			raw:      "null",
			expected: "",
		},
		{
			name:     "Plain string from server API",
			raw:      `"Deploy fails on staging"`,
			expected: "Deploy fails on staging",
		},
		{
			name: "Simple document",
			raw: `{"type":"doc","version":1,"content":[
				{"type":"paragraph","content":[{"type":"text","text":"Simple "},{"type":"text","text":"text."}]}
			]}`,
			expected: "Simple  text.",
		},
		{
			name: "Multiple paragraphs joined with blank lines",
			raw: `{"type":"doc","version":1,"content":[
				{"type":"paragraph","content":[{"type":"text","text":"First."}]},
				{"type":"paragraph","content":[{"type":"text","text":"Second."}]}
			]}`,
			expected: "First.\n\nSecond.",
		},
		{
			name: "Bullet list",
			raw: `{"type":"doc","version":1,"content":[
				{"type":"bulletList","content":[
					{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"one"}]}]},
					{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"two"}]}]}
				]}
			]}`,
			expected: "- one\n- two",
		},
		{
			name: "Unknown node types fall back to their children",
			raw: `{"type":"doc","version":1,"content":[
				{"type":"panel","attrs":{"panelType":"info"},"content":[
					{"type":"paragraph","content":[{"type":"text","text":"heads up"}]}
				]}
			]}`,
			expected: "heads up",
		},
		{
			name:     "Non-object scalar is stringified",
			raw:      `42`,
			expected: "42",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeText(json.RawMessage(tc.raw)))
		})
	}
}
