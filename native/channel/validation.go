package channel

import (
	"fmt"
	"strings"
)

// StringPolicy describes the shape one textual field must satisfy. Policies
// are data so the rules read off in one place and the checker stays generic.
type StringPolicy struct {
	Field             string
	MinLength         int
	MaxLength         int
	AllowNumbers      bool
	AllowUppercase    bool
	AllowSpaces       bool
	AllowSpecialChars bool
	RequiredPrefixes  []string
	MustContain       []string
}

var (
	// UserNamePolicy admits lowercase letters only.
	UserNamePolicy = StringPolicy{
		Field:     "user_name",
		MinLength: 3,
		MaxLength: 32,
	}
	// ChannelNamePolicy admits mixed-case alphanumerics.
	ChannelNamePolicy = StringPolicy{
		Field:          "channel_name",
		MinLength:      3,
		MaxLength:      32,
		AllowNumbers:   true,
		AllowUppercase: true,
	}
	// DescriptionPolicy admits free text.
	DescriptionPolicy = StringPolicy{
		Field:             "description",
		MinLength:         3,
		MaxLength:         256,
		AllowNumbers:      true,
		AllowUppercase:    true,
		AllowSpaces:       true,
		AllowSpecialChars: true,
	}
	// LinkPolicy admits http, https and ipfs URIs containing a dot.
	LinkPolicy = StringPolicy{
		Field:             "link",
		MinLength:         3,
		MaxLength:         256,
		AllowNumbers:      true,
		AllowUppercase:    true,
		AllowSpecialChars: true,
		RequiredPrefixes:  []string{"http://", "https://", "ipfs://"},
		MustContain:       []string{"."},
	}
	// AssetNamePolicy admits mixed-case alphanumerics with spaces.
	AssetNamePolicy = StringPolicy{
		Field:          "asset_name",
		MinLength:      3,
		MaxLength:      64,
		AllowNumbers:   true,
		AllowUppercase: true,
		AllowSpaces:    true,
	}
)

// ValidationError reports which field failed, the offending value and the rule
// it broke.
type ValidationError struct {
	Field string
	Value string
	Rule  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("channel: invalid %s %q: %s", e.Field, e.Value, e.Rule)
}

func (p StringPolicy) fail(value, rule string) error {
	return &ValidationError{Field: p.Field, Value: value, Rule: rule}
}

// Validate checks value against the policy.
func (p StringPolicy) Validate(value string) error {
	if len(value) < p.MinLength || len(value) > p.MaxLength {
		return p.fail(value, fmt.Sprintf("length must be between %d and %d", p.MinLength, p.MaxLength))
	}
	if len(p.RequiredPrefixes) > 0 {
		ok := false
		for _, prefix := range p.RequiredPrefixes {
			if strings.HasPrefix(value, prefix) {
				ok = true
				break
			}
		}
		if !ok {
			return p.fail(value, "must start with one of "+strings.Join(p.RequiredPrefixes, ", "))
		}
	}
	for _, substr := range p.MustContain {
		if !strings.Contains(value, substr) {
			return p.fail(value, "must contain "+substr)
		}
	}
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
			if !p.AllowUppercase {
				return p.fail(value, "uppercase characters not allowed")
			}
		case c >= '0' && c <= '9':
			if !p.AllowNumbers {
				return p.fail(value, "numbers not allowed")
			}
		case c == ' ':
			if !p.AllowSpaces {
				return p.fail(value, "spaces not allowed")
			}
		default:
			if !p.AllowSpecialChars {
				return p.fail(value, "special characters not allowed")
			}
		}
	}
	return nil
}

// ValidateMetadata checks every populated descriptive field. Optional fields
// are only validated when set.
func ValidateMetadata(md Metadata) error {
	if err := ChannelNamePolicy.Validate(md.ChannelName); err != nil {
		return err
	}
	if md.Description != "" {
		if err := DescriptionPolicy.Validate(md.Description); err != nil {
			return err
		}
	}
	if md.ProfilePicture != "" {
		if err := LinkPolicy.Validate(md.ProfilePicture); err != nil {
			return err
		}
	}
	if md.BannerPicture != "" {
		if err := LinkPolicy.Validate(md.BannerPicture); err != nil {
			return err
		}
	}
	return nil
}
