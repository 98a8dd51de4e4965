package record

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Known benefit category keys.
const (
	BenefitTax            = "tax"
	BenefitSubsidy        = "subsidy"
	BenefitWorkspace      = "workspace"
	BenefitSocialSecurity = "social_security"
	BenefitRegistration   = "registration"
	BenefitFinance        = "finance"
	BenefitTraining       = "training"
	BenefitCompute        = "compute"
	BenefitTrade          = "trade"
	BenefitResidence      = "residence"
)

// KnownBenefits lists the labeled benefit categories in display order.
var KnownBenefits = []string{
	BenefitTax,
	BenefitSubsidy,
	BenefitWorkspace,
	BenefitSocialSecurity,
	BenefitRegistration,
	BenefitFinance,
	BenefitTraining,
	BenefitCompute,
	BenefitTrade,
	BenefitResidence,
}

var benefitLabels = map[string]string{
	BenefitTax:            "Tax incentives",
	BenefitSubsidy:        "Startup subsidy",
	BenefitWorkspace:      "Workspace",
	BenefitSocialSecurity: "Social security subsidy",
	BenefitRegistration:   "Registration",
	BenefitFinance:        "Financing",
	BenefitTraining:       "Training",
	BenefitCompute:        "Compute",
	BenefitTrade:          "Intellectual property",
	BenefitResidence:      "Residence",
}

// BenefitLabel returns the display label for a category key.
// Unknown keys are returned unchanged.
func BenefitLabel(key string) string {
	if l, ok := benefitLabels[key]; ok {
		return l
	}
	return key
}

// Benefit describes one incentive within a policy.
type Benefit struct {
	Description string `yaml:"description" json:"description"`
	Details     string `yaml:"details,omitempty" json:"details,omitempty"`
	Amount      string `yaml:"amount,omitempty" json:"amount,omitempty"`
	Conditions  string `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Duration    string `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// UnmarshalYAML accepts either the full mapping or a bare string, which is
// taken as the description.
func (b *Benefit) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*b = Benefit{Description: node.Value}
		return nil
	}
	type plain Benefit
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*b = Benefit(p)
	return nil
}

// Benefits maps a category key to its benefit detail.
type Benefits map[string]Benefit

// Keys returns the category keys with known categories first, in their
// canonical order, followed by unknown keys sorted lexically.
func (b Benefits) Keys() []string {
	keys := make([]string, 0, len(b))
	for _, k := range KnownBenefits {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range b {
		if _, known := benefitLabels[k]; !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Has reports whether the category key is present.
func (b Benefits) Has(key string) bool {
	_, ok := b[key]
	return ok
}
