package domain

import (
	"fmt"
	"strings"
)

// Company is one supplier from the fixed reference list
type Company struct {
	Name   string `json:"name" yaml:"name" validate:"required"`
	Ticker string `json:"ticker" yaml:"ticker" validate:"required,max=10"`
}

// String returns the reference form "Name - TICKER"
func (c Company) String() string {
	return c.Name + " - " + c.Ticker
}

// ParseCompany parses a reference entry such as "Booz Allen Hamilton - BAH".
// The ticker is whatever follows the last dash.
func ParseCompany(entry string) (Company, error) {
	idx := strings.LastIndex(entry, "-")
	if idx < 0 {
		return Company{}, fmt.Errorf("company entry %q has no ticker separator", entry)
	}
	c := Company{
		Name:   strings.TrimSpace(entry[:idx]),
		Ticker: strings.TrimSpace(entry[idx+1:]),
	}
	if c.Name == "" || c.Ticker == "" {
		return Company{}, fmt.Errorf("company entry %q is missing a name or ticker", entry)
	}
	return c, nil
}

// ParseCompanies parses every entry, failing on the first malformed one
func ParseCompanies(entries []string) ([]Company, error) {
	companies := make([]Company, 0, len(entries))
	for _, e := range entries {
		c, err := ParseCompany(e)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// DefaultCompanies is the supplier list the dashboard report is run against
var DefaultCompanies = []string{
	"Booz Allen Hamilton - BAH",
	"CACI - CACI",
	"Leidos - LDOS",
	"PARSONS - PSN",
	"Tetra Tech - TTEK",
}
