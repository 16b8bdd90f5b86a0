package acp

import (
	"encoding/json"
	"fmt"
)

// ContentBlockKind discriminates ContentBlock.Type.
type ContentBlockKind string

const (
	ContentText         ContentBlockKind = "text"
	ContentImage        ContentBlockKind = "image"
	ContentAudio        ContentBlockKind = "audio"
	ContentResourceLink ContentBlockKind = "resource_link"
	ContentResource     ContentBlockKind = "resource"
)

// Annotations are optional metadata attached to a ContentBlock.
type Annotations struct {
	Audience []string `json:"audience,omitempty"`
	Priority *float64 `json:"priority,omitempty"`
}

// ContentBlock is the tagged union carrying content in prompts and in
// agent messages/tool-call content, discriminated on Type.
type ContentBlock struct {
	Type ContentBlockKind `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image / audio
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty"`

	// resource_link
	Name string `json:"name,omitempty"`
	Size *int64 `json:"size,omitempty"`

	// resource (embedded)
	Resource *EmbeddedResource `json:"resource,omitempty"`

	Annotations *Annotations `json:"annotations,omitempty"`
}

// EmbeddedResource is the payload of a "resource" content block.
// Contents is deduced by presence of Text vs Blob, per spec.
type EmbeddedResource struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// IsText reports whether the embedded resource carries inline text
// rather than a base64 blob.
func (r *EmbeddedResource) IsText() bool {
	return r.Text != ""
}

// TextBlock is a convenience constructor for a plain text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

// validate checks that the discriminator matches a known variant and
// that the fields required by that variant are present. Decoders call
// this after unmarshaling so unknown types surface as a decode error
// rather than silently producing a zero-value block.
func (c ContentBlock) validate() error {
	switch c.Type {
	case ContentText:
		return nil
	case ContentImage, ContentAudio:
		if c.Data == "" && c.URI == "" {
			return fmt.Errorf("acp: content block %q missing data/uri", c.Type)
		}
		return nil
	case ContentResourceLink:
		if c.URI == "" {
			return fmt.Errorf("acp: resource_link content block missing uri")
		}
		return nil
	case ContentResource:
		if c.Resource == nil {
			return fmt.Errorf("acp: resource content block missing resource")
		}
		return nil
	default:
		return fmt.Errorf("acp: unknown content block type %q", c.Type)
	}
}

// UnmarshalJSON validates the discriminator after the default decode,
// so every ContentBlock produced by this package is well-formed.
func (c *ContentBlock) UnmarshalJSON(data []byte) error {
	type alias ContentBlock
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	block := ContentBlock(a)
	if err := block.validate(); err != nil {
		return err
	}
	*c = block
	return nil
}
