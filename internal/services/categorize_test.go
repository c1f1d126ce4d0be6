package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinero/internal/core"
)

func testCategories() []core.Category {
	// Alphabetical, matching the repository's list order.
	return []core.Category{
		{ID: 1, Name: "Comida", Keywords: []string{"restaurante", "comida", "supermercado", "cafe"}},
		{ID: 2, Name: "Ocio", Keywords: []string{"cine", "concierto", "viaje"}},
		{ID: 3, Name: "Otros"},
		{ID: 4, Name: "Transporte", Keywords: []string{"taxi", "uber", "metro", "gasolina"}},
	}
}

func TestMatchCategoryKeyword(t *testing.T) {
	got := MatchCategory("Cena en restaurante", testCategories())
	require.NotNil(t, got)
	assert.Equal(t, "Comida", got.Name)
}

func TestMatchCategoryIgnoresCaseAndAccents(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"CAFÉ con leche", "Comida"},
		{"Entradas CINE", "Ocio"},
		{"TAXI al aeropuerto", "Transporte"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got := MatchCategory(tt.description, testCategories())
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestMatchCategorySubstringBothDirections(t *testing.T) {
	// Token "supermercados" contains keyword fragments and vice versa.
	got := MatchCategory("supermercado del barrio", testCategories())
	require.NotNil(t, got)
	assert.Equal(t, "Comida", got.Name)

	// Keyword "restaurante" contains the token "resta".
	got = MatchCategory("resta", testCategories())
	require.NotNil(t, got)
	assert.Equal(t, "Comida", got.Name)
}

func TestMatchCategoryNoMatch(t *testing.T) {
	assert.Nil(t, MatchCategory("zapatos nuevos", testCategories()))
	assert.Nil(t, MatchCategory("", testCategories()))
	assert.Nil(t, MatchCategory("   ", testCategories()))
}

func TestMatchCategoryTieGoesToFirst(t *testing.T) {
	categories := []core.Category{
		{ID: 1, Name: "Alfa", Keywords: []string{"gimnasio"}},
		{ID: 2, Name: "Beta", Keywords: []string{"gimnasio"}},
	}
	got := MatchCategory("cuota gimnasio", categories)
	require.NotNil(t, got)
	assert.Equal(t, "Alfa", got.Name)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "pelicula", normalizeText("Película"))
	assert.Equal(t, "nomina", normalizeText("NÓMINA"))
}
