package webinars

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Droit Bancaire":    "droit-bancaire",
		"droit-bancaire":    "droit-bancaire",
		"  Droit   Fiscal ": "droit-fiscal",
		"Procédure Pénale":  "procedure-penale",
		"RGPD & Données":    "rgpd-donnees",
		"M&A":               "m-a",
		"2024":              "2024",
		"---":               "",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Droit Fiscal ", "", "Droit Fiscal", "RGPD", "  "})
	assert.Equal(t, []string{"Droit Fiscal", "RGPD"}, got)
}

func TestBuildTagRefsCollapsesBySlug(t *testing.T) {
	refs := BuildTagRefs([]string{"Droit Bancaire", "droit-bancaire", "DROIT BANCAIRE", "RGPD"})
	require.Len(t, refs, 2)
	assert.Equal(t, "Droit Bancaire", refs[0].Name)
	assert.Equal(t, "droit-bancaire", refs[0].Slug)
	assert.Equal(t, "rgpd", refs[1].Slug)
}

func TestTagListUnmarshalArray(t *testing.T) {
	var l TagList
	require.NoError(t, json.Unmarshal([]byte(`["Droit Fiscal","RGPD"]`), &l))
	assert.Equal(t, TagList{"Droit Fiscal", "RGPD"}, l)
}

func TestTagListUnmarshalSeparatedString(t *testing.T) {
	var l TagList
	require.NoError(t, json.Unmarshal([]byte(`"Droit Fiscal; RGPD;Droit Bancaire"`), &l))
	refs := BuildTagRefs(l)
	require.Len(t, refs, 3)
	assert.Equal(t, "droit-fiscal", refs[0].Slug)
	assert.Equal(t, "rgpd", refs[1].Slug)
	assert.Equal(t, "droit-bancaire", refs[2].Slug)
}

func TestTagListUnmarshalEmptyString(t *testing.T) {
	var l TagList
	require.NoError(t, json.Unmarshal([]byte(`""`), &l))
	assert.Empty(t, l)
}

func TestTagListUnmarshalRejectsNumber(t *testing.T) {
	var l TagList
	assert.Error(t, json.Unmarshal([]byte(`42`), &l))
}
