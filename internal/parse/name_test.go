package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "Plain", raw: "Speaker Stand", expected: "Speaker Stand"},
		{name: "Surrounding spaces", raw: "   Mic Clip  ", expected: "Mic Clip"},
		{name: "Root with count", raw: "📦 Speaker Stand (2 components)", expected: "Speaker Stand"},
		{name: "Root without children", raw: "📦 Mixer", expected: "Mixer"},
		{name: "Child connector", raw: "  ├─ 🔧 Mic Clip", expected: "Mic Clip"},
		{name: "Master inventory root", raw: "Drum Kit [3 components]", expected: "Drum Kit"},
		{name: "Master inventory child", raw: "    └─ Snare", expected: "Snare"},
		{name: "Singular component", raw: "Case (1 component)", expected: "Case"},
		{name: "Mojibake root", raw: "ðŸ“¦ Speaker Stand (2 components)", expected: "Speaker Stand"},
		{name: "Mojibake child", raw: "  â”œâ”€ ðŸ”§ Mic Clip", expected: "Mic Clip"},
		{name: "Mojibake corner", raw: "  â””â”€ Snare", expected: "Snare"},
		{name: "Emoji with selector", raw: "🛠️ Toolbox", expected: "Toolbox"},
		{name: "Keeps inner parentheses", raw: "Cable (XLR)", expected: "Cable (XLR)"},
		{name: "Keeps trailing digits", raw: "Stand 2", expected: "Stand 2"},
		{name: "Only glyphs", raw: "├─ 🔧", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanName(tc.raw))
		})
	}
}

func TestParentSerial(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{"Speaker Stand (SN-001)", "SN-001"},
		{"Speaker Stand ( SN-001 ) ", "SN-001"},
		{"Cable (XLR) (SN-7)", "SN-7"},
		{"SN-001", "SN-001"},
		{"  SN-002  ", "SN-002"},
		{"Broken ()", "Broken ()"},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParentSerial(tc.raw))
		})
	}
}

func TestIsRootReference(t *testing.T) {
	for _, raw := range []string{"", "  ", "None", "none", "Top Level", "TOP LEVEL"} {
		assert.True(t, IsRootReference(raw), raw)
	}
	for _, raw := range []string{"Speaker Stand (SN-001)", "SN-001", "top"} {
		assert.False(t, IsRootReference(raw), raw)
	}
}

func TestNormalizeHeader(t *testing.T) {
	testCases := map[string]string{
		"Name":                "name",
		"Item_Name":           "itemname",
		"Equipment_Structure": "equipmentstructure",
		"Serial Number":       "serialnumber",
		"serial-number":       "serialnumber",
		"Purchase_Date":       "purchasedate",
		"Parent_Item":         "parentitem",
		"\ufeffName":           "name",
		"  TYPE ":             "type",
	}

	for raw, expected := range testCases {
		assert.Equal(t, expected, NormalizeHeader(raw), raw)
	}
}
