package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/testutil"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

func openElements(t *testing.T) []domain.Element {
	t.Helper()
	doc, err := docx.Open(testutil.BuildDocx(testutil.DocumentXML(
		testutil.Paragraph(testutil.Run("合同编号：HT-2024-001")),
		testutil.Paragraph(testutil.Run("甲方："), testutil.Run("某某公司"), testutil.Run("，乙方：陈长")),
		testutil.Table([]string{
			testutil.Paragraph(testutil.Run("乙方：陈长")),
			testutil.Paragraph(testutil.Run("金额15000.50")),
		}),
	)))
	require.NoError(t, err)
	return doc.Elements()
}

func TestResolveLocations(t *testing.T) {
	elements := openElements(t)

	mapping := ResolveLocations(elements, domain.TextMapping{
		"乙方":  "陈长",
		"金额":  "15000.50",
		"编号":  "HT-2024-001",
		"空值":  "",
		"不存在": "李四",
	})

	assert.Equal(t, domain.LocationDescriptor{
		ElementID: "para_1", ElementType: "paragraph", Start: 11, End: 13, Length: 2, OriginalText: "陈长",
	}, mapping["乙方"])
	assert.Equal(t, domain.LocationDescriptor{
		ElementID: "cell_0_0_1", ElementType: "table_cell", Start: 2, End: 10, Length: 8, OriginalText: "15000.50",
	}, mapping["金额"])
	assert.Equal(t, 5, mapping["编号"].Start)

	assert.NotContains(t, mapping, "空值")
	assert.NotContains(t, mapping, "不存在")
	assert.NoError(t, mapping.Validate())

	assert.Equal(t, []string{"不存在", "空值"}, Unresolved(domain.TextMapping{
		"乙方": "陈长", "空值": "", "不存在": "李四",
	}, mapping))
}

func TestDescriptorFromSelection(t *testing.T) {
	elements := openElements(t)
	el := elements[1]

	desc, err := DescriptorFromSelection(el, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, "某某公司", desc.OriginalText)
	assert.Equal(t, 4, desc.Length)
	assert.NoError(t, desc.Validate())

	_, err = DescriptorFromSelection(el, 5, 40)
	assert.Error(t, err)
	_, err = DescriptorFromSelection(el, 4, 2)
	assert.Error(t, err)
}

func TestDescriptorFromLiteral(t *testing.T) {
	elements := openElements(t)

	desc, err := DescriptorFromLiteral(elements[2], "陈长")
	require.NoError(t, err)
	assert.Equal(t, "cell_0_0_0", desc.ElementID)
	assert.Equal(t, 3, desc.Start)

	_, err = DescriptorFromLiteral(elements[2], "李四")
	assert.True(t, errors.Is(err, domain.ErrLocationNotFound))

	_, err = DescriptorFromLiteral(elements[2], "")
	assert.Error(t, err)
}

func TestDescriptorFromCandidate(t *testing.T) {
	elements := openElements(t)
	cell := elements[3]

	candidates := ExtractCandidates(domain.ElementText(cell))
	require.Len(t, candidates, 1)

	desc, err := DescriptorFromCandidate(cell, candidates[0])
	require.NoError(t, err)
	assert.Equal(t, "15000.50", desc.OriginalText)

	_, err = DescriptorFromCandidate(cell, domain.Candidate{Text: "99", Start: 0, End: 2})
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func TestVariablesForElement(t *testing.T) {
	mapping := domain.LocationMapping{
		"乙方": {ElementID: "para_1"},
		"甲方": {ElementID: "para_1"},
		"金额": {ElementID: "cell_0_0_1"},
	}
	assert.Equal(t, []string{"乙方", "甲方"}, VariablesForElement(mapping, "para_1"))
	assert.Empty(t, VariablesForElement(mapping, "para_0"))
}
