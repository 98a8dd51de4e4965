package record

// Park is a venue or administrative entity offering registration or
// workspace support, loaded from parks/<file>.yaml.
type Park struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	City            string   `yaml:"city" json:"city"`
	District        string   `yaml:"district,omitempty" json:"district,omitempty"`
	Address         string   `yaml:"address,omitempty" json:"address,omitempty"`
	Type            string   `yaml:"type,omitempty" json:"type,omitempty"`
	Contact         *Contact `yaml:"contact,omitempty" json:"contact,omitempty"`
	OPCSupport      Support  `yaml:"opc_support,omitempty" json:"opc_support,omitempty"`
	RelatedPolicies []string `yaml:"related_policies,omitempty" json:"related_policies,omitempty"`
	Tags            []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Meta            Meta     `yaml:"meta,omitempty" json:"meta"`

	// Source is the file path relative to the data root.
	Source string `yaml:"-" json:"source,omitempty"`
}

// Location renders "city·district", or just the city.
func (p *Park) Location() string {
	return location(p.City, p.District)
}
