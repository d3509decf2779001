package models

import "testing"

func TestValidateEmail(t *testing.T) {
	for _, valid := range []string{"ana@example.com", "ana.diaz@sub.example.org", "a_b@my-host.io"} {
		if err := ValidateEmail(valid); err != nil {
			t.Errorf("expected %q valid, got %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "ana", "ana@", "@example.com", "a@b.c", "ana@example.toolongtld"} {
		if err := ValidateEmail(invalid); err == nil {
			t.Errorf("expected %q invalid", invalid)
		}
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("Supervisor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != RoleSupervisor {
		t.Errorf("expected supervisor, got %s", role)
	}

	if _, err := ParseRole("owner"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestDisplayName(t *testing.T) {
	u := User{FirstName: "Ana", LastName: "Diaz"}
	if u.DisplayName() != "Ana Diaz" {
		t.Errorf("unexpected display name %q", u.DisplayName())
	}
}
