package dashboard

import (
	"fmt"
	"strings"

	"nationcli/internal/config"
)

// Selectors are the XPath expressions the driver relies on. Defaults follow
// the Nation Analytics site and its embedded Tableau visualization.
type Selectors struct {
	// Site
	LoginLink      string
	Email          string
	Password       string
	Submit         string
	AccountMenu    string
	ReportsLink    string
	MarketResearch string
	ReportLink     string
	Frame          string

	// Visualization
	PeriodMenu      string
	PeriodItem      string
	Option          string
	SearchBox       string
	AllOption       string
	DownloadButton  string
	CrosstabOption  string
	ConfirmDownload string

	facetContainer string
	checkbox       string
}

// DefaultSelectors builds the selectors for the configured report
func DefaultSelectors(cfg config.DashboardConfig) Selectors {
	return Selectors{
		LoginLink:      `//a[@href='/login']`,
		Email:          `//input[@id='exampleInputEmail1']`,
		Password:       `//input[@id='exampleInputPassword1']`,
		Submit:         `//button[@type='submit']`,
		AccountMenu:    `//button[@id='dropdownMenuButton1']`,
		ReportsLink:    `//a[@href='/reports']`,
		MarketResearch: `//a[contains(text(),'Market Research')]`,
		ReportLink:     fmt.Sprintf(`//a[contains(text(),%s)]`, xpathLiteral(cfg.ReportName)),
		Frame:          fmt.Sprintf(`//iframe[@title=%s]`, xpathLiteral(cfg.FrameTitle)),

		PeriodMenu:      `//div/span[contains(text(),'Quarter')]/parent::*`,
		PeriodItem:      fmt.Sprintf(`//span[@class='tabMenuItemName'][contains(text(),%s)]`, xpathLiteral(cfg.PeriodView)),
		Option:          `//a[@title]`,
		SearchBox:       `//textarea[@class='QueryBox']`,
		AllOption:       "(All)",
		DownloadButton:  `//button[@id='download']`,
		CrosstabOption:  `//span[contains(text(),'Crosstab')]`,
		ConfirmDownload: `//button[contains(text(),'Download')]`,

		facetContainer: `//div[@class='TitleAndControls CF2Button HideControls'][contains(normalize-space(.),%s)]` +
			`/following-sibling::div[2]/span/div[@class='tabComboBoxNameContainer tab-ctrl-formatted-fixedsize']`,
		checkbox: `//a[@title=%s]/preceding-sibling::input`,
	}
}

// FacetContainer returns the dropdown control of the facet titled title
func (s Selectors) FacetContainer(title string) string {
	return fmt.Sprintf(s.facetContainer, xpathLiteral(title))
}

// Checkbox returns the checkbox input of the option titled value
func (s Selectors) Checkbox(value string) string {
	return fmt.Sprintf(s.checkbox, xpathLiteral(value))
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so values holding both quote kinds are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}
