package errors

import (
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "shenzhen-nanshan-opc-2024", false},
		{"valid with underscore", "hangzhou_ai_01", false},
		{"valid with dot", "beijing.v2", false},
		{"valid unicode", "深圳-南山", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal", "..", true},
		{"slash", "foo/bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://www.sz.gov.cn/policy/1.html", false},
		{"http", "http://example.gov.cn", false},

		{"empty", "", true},
		{"no scheme", "www.sz.gov.cn", true},
		{"ftp", "ftp://example.com", true},
		{"javascript", "javascript:alert(1)", true},
		{"http prefix only", "httpfoo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidURL) {
				t.Errorf("ValidateURL(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidURL)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "2024-03-15", false},
		{"leap day", "2024-02-29", false},

		{"empty", "", true},
		{"slashes", "2024/03/15", true},
		{"chinese", "2024年3月15日", true},
		{"short month", "2024-3-15", true},
		{"not a day", "2023-02-29", true},
		{"month 13", "2024-13-01", true},
		{"with time", "2024-03-15T10:00:00Z", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestIsISODate(t *testing.T) {
	// Shape only: 2023-02-29 has the right shape even though it is not a day.
	if !IsISODate("2023-02-29") {
		t.Error("IsISODate should accept a well-shaped date")
	}
	if IsISODate("2023-2-1") {
		t.Error("IsISODate should reject unpadded fields")
	}
}
