package tablefile

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed indicates the file is not a parseable table document at all.
var ErrMalformed = errors.New("malformed table document")

// Decode parses raw file bytes into a document. It only guarantees the
// container is well formed; structural health is Validate's job.
func Decode(data []byte) (Document, error) {
	var doc Document

	unmarshalErr := json.Unmarshal(data, &doc)
	if unmarshalErr != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformed, unmarshalErr)
	}

	if len(doc.Tables) == 0 {
		return Document{}, fmt.Errorf("%w: no tables", ErrMalformed)
	}

	return doc, nil
}

// Encode renders a document to file bytes. Indented so that diffs and
// hand inspection stay practical.
func Encode(doc Document) ([]byte, error) {
	data, marshalErr := json.MarshalIndent(doc, "", "  ")
	if marshalErr != nil {
		return nil, fmt.Errorf("encode table document: %w", marshalErr)
	}

	return append(data, '\n'), nil
}
