package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SpanKind tags an inline span of block content.
type SpanKind int

const (
	// SpanUnknown is any inline type the core does not understand.
	SpanUnknown SpanKind = iota
	// SpanText is plain styled text.
	SpanText
	// SpanLink is a hyperlink wrapping its own text spans.
	SpanLink
)

func (k SpanKind) String() string {
	switch k {
	case SpanText:
		return "text"
	case SpanLink:
		return "link"
	default:
		return "unknown"
	}
}

// Span is one inline element of a block. Raw keeps the editor json so the
// content round-trips unchanged.
type Span struct {
	Kind SpanKind
	Text string
	Raw  json.RawMessage
}

func (s *Span) UnmarshalJSON(data []byte) error {
	s.Raw = append(json.RawMessage(nil), data...)
	s.Kind = SpanUnknown
	s.Text = ""

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var raw struct {
		Type    string          `json:"type"`
		Text    string          `json:"text"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case "text":
		s.Kind = SpanText
		s.Text = raw.Text
	case "link":
		s.Kind = SpanLink
		var inner []Span
		if json.Unmarshal(raw.Content, &inner) == nil {
			s.Text = JoinText(inner)
		}
	}

	return nil
}

func (s Span) MarshalJSON() ([]byte, error) {
	if len(s.Raw) != 0 {
		return s.Raw, nil
	}

	return json.Marshal(map[string]any{
		"type": s.Kind.String(),
		"text": s.Text,
	})
}

// Block is one unit of structured content. Content holds the inline spans,
// it stays empty for blocks whose content is not an inline list (tables, code).
type Block struct {
	ID       string
	Type     string
	Content  []Span
	Children []Block
	Raw      json.RawMessage
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		Type     string          `json:"type"`
		Content  json.RawMessage `json:"content"`
		Children []Block         `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.ID = raw.ID
	b.Type = raw.Type
	b.Children = raw.Children
	b.Content = nil
	b.Raw = append(json.RawMessage(nil), data...)

	content := bytes.TrimSpace(raw.Content)
	if len(content) > 0 && content[0] == '[' {
		if err := json.Unmarshal(content, &b.Content); err != nil {
			return err
		}
	}

	return nil
}

func (b Block) MarshalJSON() ([]byte, error) {
	if len(b.Raw) != 0 {
		return b.Raw, nil
	}

	return json.Marshal(struct {
		ID       string  `json:"id,omitempty"`
		Type     string  `json:"type"`
		Content  []Span  `json:"content"`
		Children []Block `json:"children,omitempty"`
	}{b.ID, b.Type, b.Content, b.Children})
}

// Text concatenates the plain text spans of the block, ignoring its children.
func (b Block) Text() string {
	return JoinText(b.Content)
}

// JoinText concatenates the text of the SpanText spans.
func JoinText(spans []Span) string {
	var sb strings.Builder
	for _, span := range spans {
		if span.Kind == SpanText {
			sb.WriteString(span.Text)
		}
	}

	return sb.String()
}

// TextBlock builds a paragraph holding a single text span.
func TextBlock(text string) Block {
	return Block{
		Type:    "paragraph",
		Content: []Span{{Kind: SpanText, Text: text}},
	}
}

// EncodeBlocks serializes blocks the way the editor stores them.
func EncodeBlocks(blocks []Block) (string, error) {
	data, err := json.Marshal(blocks)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
