package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// PayloadKind tags the two shapes a payload can take.
type PayloadKind string

const (
	// KindStructured marks a payload that parsed as a complete JSON value.
	KindStructured PayloadKind = "structured"
	// KindOpaque marks a payload kept verbatim as text.
	KindOpaque PayloadKind = "opaque"
)

// Payload is the normalized form of an event's data field: either a parsed
// JSON document or the original text untouched. Exactly one arm is set;
// the zero Payload has no kind and appears only inside zero Records.
type Payload struct {
	kind PayloadKind
	doc  any
	text string
}

// Normalize classifies raw event data. Any input that parses as exactly one
// JSON value, scalars included, becomes a structured payload; everything
// else, including the empty string and text with trailing garbage, is kept
// opaque byte-for-byte. Normalize never fails.
func Normalize(raw string) Payload {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return OpaquePayload(raw)
	}

	// A second value or trailing garbage means raw was not one JSON
	// document, so it stays opaque.
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		return OpaquePayload(raw)
	}

	return StructuredPayload(doc)
}

// StructuredPayload wraps an already-decoded JSON document.
func StructuredPayload(doc any) Payload {
	return Payload{kind: KindStructured, doc: doc}
}

// OpaquePayload wraps raw text verbatim.
func OpaquePayload(text string) Payload {
	return Payload{kind: KindOpaque, text: text}
}

// Kind returns the payload's tag.
func (p Payload) Kind() PayloadKind {
	return p.kind
}

// Document returns the parsed document and true when the payload is
// structured.
func (p Payload) Document() (any, bool) {
	return p.doc, p.kind == KindStructured
}

// Text returns the raw text and true when the payload is opaque.
func (p Payload) Text() (string, bool) {
	return p.text, p.kind == KindOpaque
}

// Unwrap returns the native value for serialization: the document for
// structured payloads, the string for opaque ones.
func (p Payload) Unwrap() any {
	if p.kind == KindStructured {
		return p.doc
	}
	return p.text
}

// payloadEnvelope is the tagged JSON encoding used by stores and the API.
type payloadEnvelope struct {
	Kind PayloadKind     `json:"kind"`
	Doc  json.RawMessage `json:"doc,omitempty"`
	Text *string         `json:"text,omitempty"`
}

func (p Payload) MarshalJSON() ([]byte, error) {
	envelope := payloadEnvelope{Kind: p.kind}
	switch p.kind {
	case KindStructured:
		doc, err := json.Marshal(p.doc)
		if err != nil {
			return nil, fmt.Errorf("encode structured payload: %w", err)
		}
		envelope.Doc = doc
	case KindOpaque:
		envelope.Text = &p.text
	}
	return json.Marshal(envelope)
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	var envelope payloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	switch envelope.Kind {
	case KindStructured:
		doc, err := DecodeDocument(envelope.Doc)
		if err != nil {
			return err
		}
		*p = StructuredPayload(doc)
	case KindOpaque:
		var text string
		if envelope.Text != nil {
			text = *envelope.Text
		}
		*p = OpaquePayload(text)
	default:
		return fmt.Errorf("unknown payload kind %q", envelope.Kind)
	}
	return nil
}

// DecodeDocument parses a stored JSON document, keeping numbers as
// json.Number so re-encoding preserves the original literals.
func DecodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode payload document: %w", err)
	}
	return doc, nil
}
