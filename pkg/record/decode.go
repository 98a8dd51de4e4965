package record

import (
	stderrors "errors"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opcmap/policymap/pkg/errors"
)

// IsDataFile reports whether name has a recognized record extension.
func IsDataFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Decode parses a single YAML document into v. The document must be a
// mapping; empty documents, scalars and sequences are rejected with
// ErrCodeInvalidRecord.
//
// A field whose YAML shape does not match its Go type is left at its zero
// value while the remaining fields are still decoded. The returned error
// then carries the mismatches; see FieldErrors.
func Decode(data []byte, v any) error {
	root, err := parseMapping(data)
	if err != nil {
		return err
	}
	if err := root.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode record")
	}
	return nil
}

func parseMapping(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "parse YAML")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRecord, "empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrCodeInvalidRecord, "document is not a mapping")
	}
	return root, nil
}

// FieldErrors returns the per-field type mismatches carried by an error from
// Decode, or nil when err is not a type mismatch. A non-nil result means v
// was otherwise decoded.
func FieldErrors(err error) []string {
	var te *yaml.TypeError
	if !stderrors.As(err, &te) {
		return nil
	}
	return te.Errors
}
