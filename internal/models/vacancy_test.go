package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVacancyID(t *testing.T) {
	assert.Equal(t, "93120451", RawVacancy{"id": "93120451"}.ID())
	assert.Equal(t, "42", RawVacancy{"id": float64(42)}.ID())
	assert.Equal(t, "", RawVacancy{"name": "no id"}.ID())
	assert.Equal(t, "7", DetailRecord{"id": json.Number("7")}.ID())
}

func TestDetailRecordBinaryRoundTrip(t *testing.T) {
	in := DetailRecord{"id": "1", "name": "Аналитик", "key_skills": []any{map[string]any{"name": "SQL"}}}

	data, err := in.MarshalBinary()
	require.NoError(t, err)

	var out DetailRecord
	require.NoError(t, out.UnmarshalBinary(data))
	assert.Equal(t, "Аналитик", out["name"])
	assert.Equal(t, "1", out.ID())
}

func TestHasSkill(t *testing.T) {
	p := DerivedPosting{Skills: []SkillFlag{{Label: "SQL", Present: true}, {Label: "Git"}}}
	assert.True(t, p.HasSkill("SQL"))
	assert.False(t, p.HasSkill("Git"))
	assert.False(t, p.HasSkill("Tableau"))
}
