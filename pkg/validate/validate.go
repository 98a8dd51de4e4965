// Package validate lints the record files under a data root.
//
// Unlike the loader, which skips bad files so the rest of the site keeps
// serving, the validator reads every file and accumulates findings.
// A finding is either a hard error (the record breaks the schema) or a soft
// warning (a formatting or completeness suggestion). A run fails when it
// records at least one hard error anywhere in the tree.
package validate

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/record"
	"github.com/opcmap/policymap/pkg/store"
)

// Severity grades a finding.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finding is one problem found in one file.
type Finding struct {
	File     string   `json:"file"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s]: %s", f.Severity, f.File, f.Message)
}

// Report is the outcome of a validation run.
type Report struct {
	Findings []Finding
	// Passed counts files that parsed as a YAML mapping, whatever their
	// other findings.
	Passed int
}

// Errors returns the number of hard errors.
func (r *Report) Errors() int { return r.count(SeverityError) }

// Warnings returns the number of soft warnings.
func (r *Report) Warnings() int { return r.count(SeverityWarning) }

// Failed reports whether any hard error was recorded.
func (r *Report) Failed() bool { return r.Errors() > 0 }

// ForFile returns the findings recorded against file, in order.
func (r *Report) ForFile(file string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.File == file {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

func (r *Report) errorf(file, field, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{File: file, Severity: SeverityError, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(file, field, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{File: file, Severity: SeverityWarning, Field: field, Message: fmt.Sprintf(format, args...)})
}

// RequiredPolicyFields are the fields every policy file must set.
var RequiredPolicyFields = []string{"id", "city", "name", "issuer", "publish_date", "status", "source_url"}

// RequiredParkFields are the fields every park file must set.
var RequiredParkFields = []string{"id", "name", "city"}

// policyField returns a required policy field as written. Unquoted dates
// decode as their source text, so malformed dates stay visible.
func policyField(p *record.Policy, name string) string {
	switch name {
	case "id":
		return p.ID
	case "city":
		return p.City
	case "name":
		return p.Name
	case "issuer":
		return p.Issuer
	case "publish_date":
		return string(p.PublishDate)
	case "status":
		return string(p.Status)
	case "source_url":
		return p.SourceURL
	}
	return ""
}

// Validator checks a data root.
type Validator struct {
	Root string
}

// New returns a validator for the data root at root.
func New(root string) *Validator {
	return &Validator{Root: root}
}

// Run validates every record file under the root. A missing root yields an
// empty report. Only cancellation is returned as an error; everything else
// becomes a finding.
func (v *Validator) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	if _, err := os.Stat(v.Root); os.IsNotExist(err) {
		return report, nil
	}

	seen := make(map[string]string)
	err := filepath.WalkDir(v.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := relPath(v.Root, path)
		if walkErr != nil {
			report.errorf(rel, "", "cannot read: %v", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !record.IsDataFile(d.Name()) {
			return nil
		}
		v.checkFile(report, seen, path, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (v *Validator) checkFile(report *Report, seen map[string]string, path, rel string) {
	data, err := os.ReadFile(path)
	if err != nil {
		report.errorf(rel, "", "cannot read: %v", err)
		return
	}

	switch section(rel) {
	case store.PoliciesDir:
		if strings.Contains(rel, "_schema") {
			break
		}
		var p record.Policy
		if !decodeRecord(report, rel, data, &p) {
			return
		}
		checkPolicy(report, rel, &p)
		if p.ID != "" {
			if first, dup := seen[p.ID]; dup {
				report.errorf(rel, "id", "duplicate id %q (first defined in %s)", p.ID, first)
			} else {
				seen[p.ID] = rel
			}
		}
		report.Passed++
		return
	case store.ParksDir:
		var p record.Park
		if !decodeRecord(report, rel, data, &p) {
			return
		}
		checkPark(report, rel, &p)
		report.Passed++
		return
	}

	var doc yaml.Node
	if err := record.Decode(data, &doc); err != nil {
		report.errorf(rel, "", "invalid YAML: %v", err)
		return
	}
	report.Passed++
}

// decodeRecord decodes data into v the way the loader does. A parse failure
// is one error and stops the checks; each mistyped field is its own error and
// the remaining fields are still checked.
func decodeRecord(report *Report, file string, data []byte, v any) bool {
	err := record.Decode(data, v)
	if err == nil {
		return true
	}
	mistyped := record.FieldErrors(err)
	if mistyped == nil {
		report.errorf(file, "", "invalid YAML: %v", err)
		return false
	}
	for _, msg := range mistyped {
		report.errorf(file, "", "wrong type: %s", msg)
	}
	return true
}

// checkPolicy records the schema findings for a single decoded policy.
func checkPolicy(report *Report, file string, p *record.Policy) {
	for _, name := range RequiredPolicyFields {
		if strings.TrimSpace(policyField(p, name)) == "" {
			report.errorf(file, name, "missing required field %q", name)
		}
	}

	if p.Status != "" && !p.Status.Valid() {
		report.errorf(file, "status", "invalid status %q, want one of %s", p.Status, statusList())
	}

	if p.SourceURL != "" {
		if err := errors.ValidateURL(p.SourceURL); err != nil {
			report.errorf(file, "source_url", "source_url must start with http:// or https://")
		}
	}

	for _, df := range []struct{ name, value string }{
		{"publish_date", string(p.PublishDate)},
		{"effective_date", string(p.EffectiveDate)},
		{"expiry_date", string(p.ExpiryDate)},
	} {
		if df.value != "" && !errors.IsISODate(df.value) {
			report.warnf(file, df.name, "%s should be YYYY-MM-DD, got %q", df.name, df.value)
		}
	}

	if len(p.Benefits) == 0 {
		report.warnf(file, "benefits", "no benefits listed")
	}
	if p.Meta.LastVerified == "" {
		report.warnf(file, "meta.last_verified", "meta.last_verified is not set")
	}
}

func checkPark(report *Report, file string, p *record.Park) {
	values := map[string]string{"id": p.ID, "name": p.Name, "city": p.City}
	for _, name := range RequiredParkFields {
		if strings.TrimSpace(values[name]) == "" {
			report.errorf(file, name, "missing required field %q", name)
		}
	}
}

func statusList() string {
	names := make([]string, len(record.Statuses))
	for i, s := range record.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, " | ")
}

// section returns the top-level directory of a slash-separated relative path.
func section(rel string) string {
	first, _, found := strings.Cut(rel, "/")
	if !found {
		return ""
	}
	return first
}

func relPath(root, path string) string {
	r, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}
