package channel

import (
	"errors"
	"strings"
	"testing"
)

func expectRule(t *testing.T, err error, fragment string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error containing %q", fragment)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(vErr.Rule, fragment) {
		t.Fatalf("rule %q does not mention %q", vErr.Rule, fragment)
	}
}

func TestUserNamePolicy(t *testing.T) {
	if err := UserNamePolicy.Validate("validname"); err != nil {
		t.Fatalf("valid username rejected: %v", err)
	}
	expectRule(t, UserNamePolicy.Validate("ab"), "length")
	expectRule(t, UserNamePolicy.Validate(strings.Repeat("a", 33)), "length")
	expectRule(t, UserNamePolicy.Validate("name123"), "numbers")
	expectRule(t, UserNamePolicy.Validate("Name"), "uppercase")
	expectRule(t, UserNamePolicy.Validate("my name"), "spaces")
	expectRule(t, UserNamePolicy.Validate("name!"), "special")
}

func TestChannelNamePolicy(t *testing.T) {
	for _, ok := range []string{"Channel123", "channelname"} {
		if err := ChannelNamePolicy.Validate(ok); err != nil {
			t.Fatalf("%q rejected: %v", ok, err)
		}
	}
	expectRule(t, ChannelNamePolicy.Validate("ch"), "length")
	expectRule(t, ChannelNamePolicy.Validate("channel!"), "special")
	expectRule(t, ChannelNamePolicy.Validate("channel name"), "spaces")
}

func TestDescriptionPolicy(t *testing.T) {
	if err := DescriptionPolicy.Validate("Valid description 123!"); err != nil {
		t.Fatalf("valid description rejected: %v", err)
	}
	expectRule(t, DescriptionPolicy.Validate("ab"), "length")
	expectRule(t, DescriptionPolicy.Validate(strings.Repeat("a", 257)), "length")
}

func TestLinkPolicy(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://test.org/path",
		"ipfs://Qm.abc",
		"https://sub.domain.com/path?query=123",
	}
	for _, link := range valid {
		if err := LinkPolicy.Validate(link); err != nil {
			t.Fatalf("%q rejected: %v", link, err)
		}
	}
	expectRule(t, LinkPolicy.Validate("not-a-url.com"), "start with")
	expectRule(t, LinkPolicy.Validate("ftp://invalid.com"), "start with")
	expectRule(t, LinkPolicy.Validate("https://nodot"), "contain")
}

func TestAssetNamePolicy(t *testing.T) {
	if err := AssetNamePolicy.Validate("My Clip 42"); err != nil {
		t.Fatalf("valid asset name rejected: %v", err)
	}
	expectRule(t, AssetNamePolicy.Validate("clip!"), "special")
	expectRule(t, AssetNamePolicy.Validate(strings.Repeat("a", 65)), "length")
}

func TestValidateMetadataOptionalFields(t *testing.T) {
	md := Metadata{ChannelName: "GoodChannel"}
	if err := ValidateMetadata(md); err != nil {
		t.Fatalf("metadata with only name rejected: %v", err)
	}
	md.ProfilePicture = "https://cdn.example.com/p.png"
	md.Description = "A channel about things"
	if err := ValidateMetadata(md); err != nil {
		t.Fatalf("full metadata rejected: %v", err)
	}
	md.BannerPicture = "nope"
	if err := ValidateMetadata(md); err == nil {
		t.Fatalf("bad banner link accepted")
	}
}

func TestRoleGrants(t *testing.T) {
	cases := []struct {
		holder   Role
		required Role
		want     bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleModerator, true},
		{RoleAdmin, RolePublisher, true},
		{RoleModerator, RoleAdmin, false},
		{RoleModerator, RoleModerator, true},
		{RoleModerator, RolePublisher, true},
		{RolePublisher, RoleAdmin, false},
		{RolePublisher, RoleModerator, false},
		{RolePublisher, RolePublisher, true},
		{Role(0), RolePublisher, false},
	}
	for _, c := range cases {
		if got := c.holder.Grants(c.required); got != c.want {
			t.Fatalf("%s grants %s = %v, want %v", c.holder, c.required, got, c.want)
		}
	}
}
