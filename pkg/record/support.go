package record

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Known park support keys.
const (
	SupportRegistrationAddress = "registration_address"
	SupportRegistrationFee     = "registration_fee"
	SupportWorkspace           = "workspace"
	SupportWorkspaceFee        = "workspace_fee"
)

var supportLabels = map[string]string{
	SupportRegistrationAddress: "Registration address",
	SupportRegistrationFee:     "Registration fee",
	SupportWorkspace:           "Workspace",
	SupportWorkspaceFee:        "Workspace fee",
}

// SupportLabel returns the display label for a support key.
// Unknown keys are returned unchanged.
func SupportLabel(key string) string {
	if l, ok := supportLabels[key]; ok {
		return l
	}
	return key
}

// SupportValue is a park support entry: either a yes/no flag or free text
// such as a fee.
type SupportValue struct {
	Flag   bool
	Text   string
	IsFlag bool
}

// FlagValue returns a boolean support value.
func FlagValue(v bool) SupportValue { return SupportValue{Flag: v, IsFlag: true} }

// TextValue returns a free-text support value.
func TextValue(s string) SupportValue { return SupportValue{Text: s} }

// UnmarshalYAML decodes a scalar; booleans become flags, anything else text.
func (v *SupportValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return &yaml.TypeError{Errors: []string{fmt.Sprintf("line %d: support value must be a scalar", node.Line)}}
	}
	if node.ShortTag() == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = FlagValue(b)
		return nil
	}
	*v = TextValue(node.Value)
	return nil
}

// MarshalYAML encodes the value back as a bool or string.
func (v SupportValue) MarshalYAML() (any, error) {
	if v.IsFlag {
		return v.Flag, nil
	}
	return v.Text, nil
}

// MarshalJSON encodes the value as a JSON bool or string.
func (v SupportValue) MarshalJSON() ([]byte, error) {
	if v.IsFlag {
		return json.Marshal(v.Flag)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts a JSON bool or string.
func (v *SupportValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = FlagValue(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("support value must be a bool or string: %w", err)
	}
	*v = TextValue(s)
	return nil
}

// String renders the value for display.
func (v SupportValue) String() string {
	if v.IsFlag {
		if v.Flag {
			return "yes"
		}
		return "no"
	}
	return v.Text
}

// Support maps a support key to its value.
type Support map[string]SupportValue

// Keys returns the support keys sorted lexically.
func (s Support) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
