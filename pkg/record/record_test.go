package record

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/opcmap/policymap/pkg/errors"
)

const samplePolicy = `
id: sz-nanshan-opc-2024
city: 深圳
district: 南山区
name: 南山区一人企业扶持办法
issuer: 南山区科技创新局
publish_date: 2024-03-15
expiry_date: 2026-03-14
status: active
source_url: https://www.szns.gov.cn/policy/1.html
targets:
  - 独立开发者
benefits:
  subsidy:
    description: 一次性创业补贴
    amount: 最高 5 万元
  workspace: 免租工位 6 个月
  drone_testing:
    description: 低空飞行测试场地
parks: [nanshan-opc-park]
tags: [AI, 补贴]
meta:
  contributor: octocat
  last_verified: 2024-09-01
  verified: true
`

func TestDecodePolicy(t *testing.T) {
	var p Policy
	if err := Decode([]byte(samplePolicy), &p); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if p.ID != "sz-nanshan-opc-2024" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.PublishDate != "2024-03-15" {
		t.Errorf("PublishDate = %q, want raw date text", p.PublishDate)
	}
	if p.Meta.LastVerified != "2024-09-01" {
		t.Errorf("Meta.LastVerified = %q", p.Meta.LastVerified)
	}
	if !p.IsActive() {
		t.Error("IsActive() = false, want true")
	}
	if got := p.Location(); got != "深圳·南山区" {
		t.Errorf("Location() = %q", got)
	}
	if !p.HasTag("AI") || p.HasTag("ai") {
		t.Error("HasTag should match exactly")
	}

	wantBenefits := Benefits{
		"subsidy":       {Description: "一次性创业补贴", Amount: "最高 5 万元"},
		"workspace":     {Description: "免租工位 6 个月"},
		"drone_testing": {Description: "低空飞行测试场地"},
	}
	if diff := cmp.Diff(wantBenefits, p.Benefits); diff != "" {
		t.Errorf("Benefits mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsNonMapping(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"comment only", "# nothing here\n"},
		{"scalar", "just a string"},
		{"sequence", "- a\n- b\n"},
		{"syntax error", "id: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Policy
			err := Decode([]byte(tt.input), &p)
			if err == nil {
				t.Fatal("Decode() expected error, got nil")
			}
			if !errors.Is(err, errors.ErrCodeInvalidRecord) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidRecord)
			}
		})
	}
}

func TestDecodeMistypedFields(t *testing.T) {
	input := samplePolicy + "requirements: registered locally\n"
	input = strings.Replace(input, "tags: [AI, 补贴]", "tags: startup", 1)

	var p Policy
	err := Decode([]byte(input), &p)
	if !errors.Is(err, errors.ErrCodeInvalidRecord) {
		t.Fatalf("Decode() error = %v, want INVALID_RECORD", err)
	}
	if got := FieldErrors(err); len(got) != 2 {
		t.Errorf("FieldErrors() = %q, want two mismatches", got)
	}
	if p.ID != "sz-nanshan-opc-2024" || p.Issuer != "南山区科技创新局" {
		t.Errorf("well-typed fields not decoded: id %q, issuer %q", p.ID, p.Issuer)
	}
	if len(p.Tags) != 0 || len(p.Requirements) != 0 {
		t.Errorf("mistyped fields should stay empty: tags %v, requirements %v", p.Tags, p.Requirements)
	}

	var park Park
	err = Decode([]byte("id: p1\nopc_support:\n  workspace:\n    nested: true\n"), &park)
	if got := FieldErrors(err); len(got) != 1 || park.ID != "p1" {
		t.Errorf("nested support value: FieldErrors() = %q, id %q", got, park.ID)
	}

	if got := FieldErrors(Decode([]byte("id: [unclosed"), &p)); got != nil {
		t.Errorf("parse failure FieldErrors() = %q, want nil", got)
	}
}

func TestBenefitsKeys(t *testing.T) {
	b := Benefits{
		"zeta_custom":  {},
		"workspace":    {},
		"tax":          {},
		"alpha_custom": {},
	}
	want := []string{"tax", "workspace", "alpha_custom", "zeta_custom"}
	if diff := cmp.Diff(want, b.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if !b.Has("tax") || b.Has("compute") {
		t.Error("Has() mismatch")
	}
}

func TestLabels(t *testing.T) {
	if got := BenefitLabel("tax"); got != "Tax incentives" {
		t.Errorf("BenefitLabel(tax) = %q", got)
	}
	if got := BenefitLabel("drone_testing"); got != "drone_testing" {
		t.Errorf("unknown benefit should fall back to key, got %q", got)
	}
	if got := SupportLabel("night_shuttle"); got != "night_shuttle" {
		t.Errorf("unknown support key should fall back to key, got %q", got)
	}
	if got := Status("pending").Label(); got != "pending" {
		t.Errorf("unknown status label = %q", got)
	}
	if got := StatusUpcoming.Label(); got != "Upcoming" {
		t.Errorf("upcoming label = %q", got)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "pending", "ACTIVE"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestParkSupport(t *testing.T) {
	input := `
id: nanshan-opc-park
name: 南山 OPC 社区
city: 深圳
opc_support:
  registration_address: true
  registration_fee: 免费
  workspace: false
  night_shuttle: "22:00"
related_policies: [sz-nanshan-opc-2024, missing-policy]
`
	var p Park
	if err := Decode([]byte(input), &p); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := Support{
		"registration_address": FlagValue(true),
		"registration_fee":     TextValue("免费"),
		"workspace":            FlagValue(false),
		"night_shuttle":        TextValue("22:00"),
	}
	if diff := cmp.Diff(want, p.OPCSupport); diff != "" {
		t.Errorf("OPCSupport mismatch (-want +got):\n%s", diff)
	}

	wantKeys := []string{"night_shuttle", "registration_address", "registration_fee", "workspace"}
	if diff := cmp.Diff(wantKeys, p.OPCSupport.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got := p.OPCSupport["workspace"].String(); got != "no" {
		t.Errorf("workspace String() = %q, want no", got)
	}
}

func TestSupportValueRoundTrip(t *testing.T) {
	in := Support{"workspace": FlagValue(true), "workspace_fee": TextValue("200/月")}

	out, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	var back Support
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	js, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if got, want := string(js), `{"workspace":true,"workspace_fee":"200/月"}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestSupportValueRejectsMapping(t *testing.T) {
	var s Support
	if err := yaml.Unmarshal([]byte("workspace:\n  nested: true\n"), &s); err == nil {
		t.Error("expected error for nested support value")
	}
}

func TestDateTime(t *testing.T) {
	tests := []struct {
		name    string
		date    Date
		want    time.Time
		wantErr bool
	}{
		{"iso", "2024-12-15", time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339", "2024-12-15T18:30:00+08:00", time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), false},
		{"unset", "", time.Time{}, true},
		{"garbage", "next spring", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.date.Time()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Time() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Time() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateAfter(t *testing.T) {
	if !Date("2024-05-01").After("2024-04-30") {
		t.Error("later date should be After")
	}
	if Date("2024-05-01").After("2024-05-01") {
		t.Error("equal dates are not After")
	}
	if Date("someday").After("2020-01-01") {
		t.Error("unparseable date should order before valid dates")
	}
	if !Date("2020-01-01").After("someday") {
		t.Error("valid date should order after unparseable dates")
	}
}

func TestIsDataFile(t *testing.T) {
	for name, want := range map[string]bool{
		"a.yaml":    true,
		"a.yml":     true,
		"A.YAML":    true,
		"a.json":    false,
		"README.md": false,
		"yaml":      false,
	} {
		if got := IsDataFile(name); got != want {
			t.Errorf("IsDataFile(%q) = %v, want %v", name, got, want)
		}
	}
}
