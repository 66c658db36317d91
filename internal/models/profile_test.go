package models

import "testing"

func strptr(s string) *string { return &s }

func baseProfile(role string) Profile {
	return Profile{
		Role:       role,
		FirstName:  "Jean",
		LastName:   "Martin",
		Phone:      "0601020304",
		Address:    "1 rue de la Gare",
		PostalCode: "75010",
		City:       "Paris",
	}
}

func TestProfileComplete(t *testing.T) {
	t.Parallel()

	t.Run("base fields required for every role", func(t *testing.T) {
		t.Parallel()
		p := baseProfile(RoleAutre)
		if !p.Complete() {
			t.Error("filled base profile should be complete for role autre")
		}
		p.Phone = ""
		if p.Complete() {
			t.Error("missing phone must make the profile incomplete")
		}
	})

	t.Run("convoyeur needs licence and birth date", func(t *testing.T) {
		t.Parallel()
		p := baseProfile(RoleConvoyeur)
		if p.Complete() {
			t.Error("convoyeur without licence data should be incomplete")
		}
		p.LicenceNumber = "123456789"
		p.LicenceDate = strptr("2015-06-01")
		if p.Complete() {
			t.Error("convoyeur without birth date should be incomplete")
		}
		p.BirthDate = strptr("1990-03-12")
		if !p.Complete() {
			t.Error("fully filled convoyeur should be complete")
		}
		p.LicenceDate = strptr("")
		if p.Complete() {
			t.Error("empty licence date string must count as missing")
		}
	})

	t.Run("client and concessionnaire need company and siret", func(t *testing.T) {
		t.Parallel()
		for _, role := range []string{RoleClient, RoleConcessionnaire} {
			p := baseProfile(role)
			if p.Complete() {
				t.Errorf("%s without company data should be incomplete", role)
			}
			p.CompanyName = "Garage Dupont"
			p.Siret = "12345678901234"
			if !p.Complete() {
				t.Errorf("fully filled %s should be complete", role)
			}
		}
	})

	t.Run("company fields are not required of a convoyeur", func(t *testing.T) {
		t.Parallel()
		p := baseProfile(RoleConvoyeur)
		p.LicenceNumber = "123456789"
		p.LicenceDate = strptr("2015-06-01")
		p.BirthDate = strptr("1990-03-12")
		if !p.Complete() {
			t.Error("convoyeur must not be held to company requirements")
		}
	})
}
