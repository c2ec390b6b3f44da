package directory

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Profile is a directory user.
type Profile struct {
	ID                string `mapstructure:"id" json:"id"`
	DisplayName       string `mapstructure:"displayName" json:"displayName"`
	GivenName         string `mapstructure:"givenName" json:"givenName"`
	Surname           string `mapstructure:"surname" json:"surname"`
	Mail              string `mapstructure:"mail" json:"mail"`
	UserPrincipalName string `mapstructure:"userPrincipalName" json:"userPrincipalName"`
	JobTitle          string `mapstructure:"jobTitle" json:"jobTitle"`
	Department        string `mapstructure:"department" json:"department"`
	OfficeLocation    string `mapstructure:"officeLocation" json:"officeLocation"`
	EmployeeID        string `mapstructure:"employeeId" json:"employeeId"`

	// LocalID is the short account name (e.g., "jdoe").
	LocalID string `mapstructure:"onPremisesSamAccountName" json:"onPremisesSamAccountName"`

	Raw map[string]any `mapstructure:"-" json:"-"`
}

// decodeProfile converts a directory JSON object into a Profile.
func decodeProfile(raw map[string]any) (*Profile, error) {
	p := &Profile{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           p,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	if p.LocalID == "" {
		if nick, ok := raw["mailNickname"].(string); ok {
			p.LocalID = nick
		}
	}
	p.Raw = raw
	return p, nil
}

// photoCandidates returns the identifiers to try, in order and without
// duplicates: email, local id at the user's domain, bare local id, then the
// principal name.
func photoCandidates(p *Profile, defaultDomain string) []string {
	domain := domainOf(p.Mail)
	if domain == "" {
		domain = domainOf(p.UserPrincipalName)
	}
	if domain == "" {
		domain = defaultDomain
	}

	var candidates []string
	seen := map[string]bool{}
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[strings.ToLower(id)] {
			return
		}
		seen[strings.ToLower(id)] = true
		candidates = append(candidates, id)
	}

	add(p.Mail)
	if p.LocalID != "" && domain != "" {
		add(p.LocalID + "@" + domain)
	}
	add(p.LocalID)
	add(p.UserPrincipalName)
	return candidates
}

func domainOf(address string) string {
	_, domain, ok := strings.Cut(address, "@")
	if !ok {
		return ""
	}
	return strings.TrimSpace(domain)
}
