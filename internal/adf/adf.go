// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adf flattens Atlassian Document Format trees into plain text.
//
// ADF is the JSON rich-text encoding Jira Cloud uses for issue descriptions:
// every node carries a "type" tag and either a "text" payload or a "content"
// list of child nodes. Extraction is total: anything that does not look like
// a node contributes no text and never produces an error.
package adf

import (
	"encoding/json"
	"strings"
)

// MaxDepth bounds how deep Parse descends. Subtrees below it are dropped.
const MaxDepth = 100

// textType is the node type whose payload is collected.
const textType = "text"

// Node is one node of a document tree. A node with Type "text" is a leaf
// whose payload is Text; any other node is a container of Children. Lists
// found where a node was expected become a container with an empty Type.
type Node struct {
	Type     string
	Text     string
	Children []Node
}

// IsText reports whether n is a text leaf.
func (n Node) IsText() bool { return n.Type == textType }

// Parse converts a decoded JSON value (as produced by json.Unmarshal into
// an interface{}) into a Node tree. Values other than objects and arrays
// yield an empty container.
func Parse(v any) Node {
	return parse(v, 0)
}

func parse(v any, depth int) Node {
	if depth >= MaxDepth {
		return Node{}
	}
	switch val := v.(type) {
	case map[string]any:
		n := Node{}
		n.Type, _ = val["type"].(string)
		if n.IsText() {
			n.Text, _ = val["text"].(string)
		}
		// A non-list content field is treated as no children.
		if children, ok := val["content"].([]any); ok {
			n.Children = parseList(children, depth+1)
		}
		return n
	case []any:
		return Node{Children: parseList(val, depth+1)}
	default:
		return Node{}
	}
}

func parseList(items []any, depth int) []Node {
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, parse(item, depth))
	}
	return nodes
}

// PlainText collects every text leaf's payload in document order
// (depth-first, pre-order) and joins them with single spaces. Empty
// payloads are skipped.
func (n Node) PlainText() string {
	var parts []string
	stack := []Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.IsText() && cur.Text != "" {
			parts = append(parts, cur.Text)
		}
		// Push children in reverse so the first child is visited next.
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return strings.Join(parts, " ")
}

// Text flattens a raw JSON field that holds either a plain string or an
// ADF document. Plain strings are returned unchanged; null, numbers,
// booleans, and malformed JSON return "".
func Text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return Parse(v).PlainText()
}
