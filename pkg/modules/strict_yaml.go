package modules

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DuplicateKeyError reports a YAML mapping key repeated at some nesting
// depth. gopkg.in/yaml.v2's Unmarshal silently lets the later key win,
// which can hide a config authoring mistake (two trust entries for the
// same source, say); walking the yaml.v3 Node tree lets us catch it.
type DuplicateKeyError struct {
	Key  string
	Line int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q at line %d", e.Key, e.Line)
}

// LoadStrict parses YAML source into a generic map, returning a
// DuplicateKeyError if any mapping node repeats a key at any depth, and
// decoding into out otherwise.
func LoadStrict(data []byte, out interface{}) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	if len(doc.Content) > 0 {
		if err := checkDuplicateKeys(doc.Content[0]); err != nil {
			return err
		}
	}

	return yaml.Unmarshal(data, out)
}

func checkDuplicateKeys(node *yaml.Node) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		seen := make(map[string]bool, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if seen[keyNode.Value] {
				return &DuplicateKeyError{Key: keyNode.Value, Line: keyNode.Line}
			}
			seen[keyNode.Value] = true

			if err := checkDuplicateKeys(node.Content[i+1]); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if err := checkDuplicateKeys(item); err != nil {
				return err
			}
		}
	case yaml.DocumentNode:
		for _, item := range node.Content {
			if err := checkDuplicateKeys(item); err != nil {
				return err
			}
		}
	}
	return nil
}
