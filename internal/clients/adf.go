package clients

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeText converts a Jira rich-text field into plain text. Cloud
// responses carry an ADF document; Server responses carry a plain string.
// An absent field yields the empty string.
func NormalizeText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return string(raw)
	}
	return normalizeNode(value)
}

// normalizeNode walks one ADF node recursively
func normalizeNode(node interface{}) string {
	switch n := node.(type) {
	case nil:
		return ""
	case string:
		return n
	case map[string]interface{}:
		nodeType, _ := n["type"].(string)
		children, _ := n["content"].([]interface{})

		switch nodeType {
		case "text":
			text, _ := n["text"].(string)
			return text
		case "doc":
			return joinChildren(children, "\n\n")
		case "bulletList", "orderedList":
			items := make([]string, 0, len(children))
			for _, child := range children {
				items = append(items, "- "+normalizeNode(child))
			}
			return strings.Join(items, "\n")
		default:
			// paragraph, listItem, codeBlock and any unrecognized node
			// all space-join their children
			return joinChildren(children, " ")
		}
	default:
		return fmt.Sprint(n)
	}
}

// joinChildren normalizes each child and joins the non-empty results
func joinChildren(children []interface{}, separator string) string {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		if text := normalizeNode(child); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, separator)
}
