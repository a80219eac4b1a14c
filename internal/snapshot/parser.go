package snapshot

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Parser deserializes a snapshot document back into structured data.
type Parser interface {
	Parse(data []byte) (*Snapshot, error)
}

// JSONParser parses a JSON-encoded Snapshot.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse JSON snapshot: %w", err)
	}
	return &snap, nil
}

// MarkdownParser parses a rendered progress document by extracting the
// embedded base64 JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*Snapshot, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid progress snapshot: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid progress snapshot: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid progress snapshot: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid progress snapshot: corrupted base64 payload: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(jsonBytes, &snap); err != nil {
		return nil, fmt.Errorf("not a valid progress snapshot: failed to parse embedded JSON: %w", err)
	}
	return &snap, nil
}
