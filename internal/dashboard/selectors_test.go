package dashboard

import (
	"strings"
	"testing"

	"github.com/chromedp/cdproto/target"
	"github.com/stretchr/testify/assert"

	"nationcli/internal/config"
)

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Booz Allen Hamilton", `'Booz Allen Hamilton'`},
		{"Dept. of Veterans' Affairs", `"Dept. of Veterans' Affairs"`},
		{`O'Brien "Co"`, `concat('O',"'",'Brien "Co"')`},
		{`'quoted' "both"`, `concat("'",'quoted',"'",' "both"')`},
		{"", `''`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, xpathLiteral(tt.in))
		})
	}
}

func TestDefaultSelectors(t *testing.T) {
	cfg := config.Default().Dashboard
	sel := DefaultSelectors(cfg)

	assert.Equal(t, `//iframe[@title='Data Visualization']`, sel.Frame)
	assert.Equal(t, `//a[contains(text(),'YOY Comparisons')]`, sel.ReportLink)
	assert.Equal(t, `//span[@class='tabMenuItemName'][contains(text(),'Month')]`, sel.PeriodItem)
	assert.Equal(t,
		`//div[@class='TitleAndControls CF2Button HideControls'][contains(normalize-space(.),'Funding Agency')]`+
			`/following-sibling::div[2]/span/div[@class='tabComboBoxNameContainer tab-ctrl-formatted-fixedsize']`,
		sel.FacetContainer("Funding Agency"))
	assert.Equal(t, `//a[@title='(All)']/preceding-sibling::input`, sel.Checkbox(sel.AllOption))
	assert.Equal(t, `//a[@title="Veterans' Affairs"]/preceding-sibling::input`, sel.Checkbox("Veterans' Affairs"))
}

func TestScriptEncodesArguments(t *testing.T) {
	xp := `//a[@title="x"]`
	js := script(frameScope, `//iframe[@title='Data Visualization']`, setTextJS(xp, "line\nbreak \"quoted\""))

	assert.True(t, strings.HasPrefix(js, "(() => {"))
	assert.True(t, strings.HasSuffix(js, "})()"))
	assert.Contains(t, js, `"//a[@title=\"x\"]"`)
	assert.Contains(t, js, `"line\nbreak \"quoted\""`)
	assert.Contains(t, js, `"//iframe[@title='Data Visualization']"`)
	assert.Contains(t, js, "contentDocument")

	page := script(pageScope, "ignored", presentJS("//button"))
	assert.Contains(t, page, "const root = document;")
	assert.NotContains(t, page, "ignored")
}

func TestPickFrameTarget(t *testing.T) {
	targets := []*target.Info{
		{TargetID: "page", Type: "page", URL: "https://nationanalytics.com/reports"},
		{TargetID: "ads", Type: "iframe", URL: "https://ads.example.com/frame"},
		{TargetID: "viz", Type: "iframe", URL: "https://tableau.example.com/views/YOY?embed=y"},
	}

	id, ok := pickFrameTarget(targets, "https://tableau.example.com/views/YOY")
	assert.True(t, ok)
	assert.Equal(t, target.ID("viz"), id)

	id, ok = pickFrameTarget(targets, "")
	assert.True(t, ok)
	assert.Equal(t, target.ID("ads"), id, "first iframe when the source is unknown")

	_, ok = pickFrameTarget(targets[:1], "https://tableau.example.com/views/YOY")
	assert.False(t, ok, "in-process frames have no target")
}
