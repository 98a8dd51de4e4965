package record

// Policy is one government policy offering, loaded from
// policies/<city>/<file>.yaml.
type Policy struct {
	ID            string       `yaml:"id" json:"id"`
	City          string       `yaml:"city" json:"city"`
	District      string       `yaml:"district,omitempty" json:"district,omitempty"`
	Name          string       `yaml:"name" json:"name"`
	Issuer        string       `yaml:"issuer" json:"issuer"`
	PublishDate   Date         `yaml:"publish_date" json:"publish_date"`
	EffectiveDate Date         `yaml:"effective_date,omitempty" json:"effective_date,omitempty"`
	ExpiryDate    Date         `yaml:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	Status        Status       `yaml:"status" json:"status"`
	PolicyNumber  string       `yaml:"policy_number,omitempty" json:"policy_number,omitempty"`
	SourceURL     string       `yaml:"source_url" json:"source_url"`
	Summary       string       `yaml:"summary,omitempty" json:"summary,omitempty"`
	Targets       []string     `yaml:"targets,omitempty" json:"targets,omitempty"`
	Benefits      Benefits     `yaml:"benefits,omitempty" json:"benefits,omitempty"`
	Requirements  []string     `yaml:"requirements,omitempty" json:"requirements,omitempty"`
	Application   *Application `yaml:"application,omitempty" json:"application,omitempty"`
	Parks         []string     `yaml:"parks,omitempty" json:"parks,omitempty"`
	Tags          []string     `yaml:"tags,omitempty" json:"tags,omitempty"`
	Meta          Meta         `yaml:"meta,omitempty" json:"meta"`

	// Source is the file path relative to the data root. It is set by the
	// loader, never read from YAML.
	Source string `yaml:"-" json:"source,omitempty"`
}

// Application describes how to apply for a policy.
type Application struct {
	Process   []string `yaml:"process,omitempty" json:"process,omitempty"`
	Materials []string `yaml:"materials,omitempty" json:"materials,omitempty"`
	Contact   *Contact `yaml:"contact,omitempty" json:"contact,omitempty"`
}

// Contact holds contact details for a policy office or park.
type Contact struct {
	Phone   string `yaml:"phone,omitempty" json:"phone,omitempty"`
	Email   string `yaml:"email,omitempty" json:"email,omitempty"`
	Website string `yaml:"website,omitempty" json:"website,omitempty"`
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

// Meta records who contributed a record and when it was last checked
// against its source.
type Meta struct {
	Contributor  string `yaml:"contributor,omitempty" json:"contributor,omitempty"`
	LastVerified Date   `yaml:"last_verified,omitempty" json:"last_verified,omitempty"`
	Verified     bool   `yaml:"verified,omitempty" json:"verified"`
	Notes        string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// IsActive reports whether the policy is asserted active.
func (p *Policy) IsActive() bool { return p.Status == StatusActive }

// Location renders "city·district", or just the city.
func (p *Policy) Location() string {
	return location(p.City, p.District)
}

// HasTag reports whether the policy carries tag.
func (p *Policy) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func location(city, district string) string {
	if district == "" {
		return city
	}
	return city + "·" + district
}
