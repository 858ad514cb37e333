package confinfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformed is wrapped by every ParseError
var ErrMalformed = errors.New("malformed conference-info document")

// ParseError reports why a document could not be parsed
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformed, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformed, e.Reason)
}

// Unwrap lets errors.Is match both ErrMalformed and the underlying cause
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformed, e.Err}
	}
	return []error{ErrMalformed}
}

// Parse decodes a conference-info document
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Reason: "empty body"}
	}

	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Reason: "invalid XML", Err: err}
	}
	if doc.Entity == "" {
		return nil, &ParseError{Reason: "missing entity attribute"}
	}
	if !doc.State.Valid() {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid state %q", doc.State)}
	}
	if doc.Users != nil {
		if !doc.Users.State.Valid() {
			return nil, &ParseError{Reason: fmt.Sprintf("invalid users state %q", doc.Users.State)}
		}
		for _, u := range doc.Users.Users {
			if u.Entity == "" {
				return nil, &ParseError{Reason: "user without entity"}
			}
			if !u.State.Valid() {
				return nil, &ParseError{Reason: fmt.Sprintf("invalid state %q for user %s", u.State, u.Entity)}
			}
			for _, ep := range u.Endpoints {
				if ep.Entity == "" {
					return nil, &ParseError{Reason: fmt.Sprintf("endpoint without entity for user %s", u.Entity)}
				}
				if !ep.State.Valid() {
					return nil, &ParseError{Reason: fmt.Sprintf("invalid state %q for endpoint %s", ep.State, ep.Entity)}
				}
			}
		}
	}
	return &doc, nil
}

// Serialize encodes a document with an XML declaration
func Serialize(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	out := *doc
	out.XMLName = xml.Name{Space: Namespace, Local: "conference-info"}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("failed to encode conference-info: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Header is the root element attributes of a document
type Header struct {
	Entity  string
	State   State
	Version uint
}

// PeekHeader reads the root attributes without decoding the body
func PeekHeader(data []byte) (Header, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return Header{}, &ParseError{Reason: "no root element", Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space != Namespace || start.Name.Local != "conference-info" {
			return Header{}, &ParseError{Reason: fmt.Sprintf("unexpected root element %s", start.Name.Local)}
		}
		var h Header
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "entity":
				h.Entity = attr.Value
			case "state":
				h.State = State(attr.Value)
			case "version":
				v, err := strconv.ParseUint(attr.Value, 10, 32)
				if err != nil {
					return Header{}, &ParseError{Reason: "invalid version", Err: err}
				}
				h.Version = uint(v)
			}
		}
		h.State = h.State.Effective()
		return h, nil
	}
}
