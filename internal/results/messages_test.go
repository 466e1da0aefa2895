package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

func TestNewMessagesLocale(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"en", language.English},
		{"en-GB", language.English},
		{"fr", language.French},
		{"fr-BE", language.French},
		{"", language.English},
		{"not a locale!", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMessages(tt.locale).Locale())
		})
	}
}

func TestMessagesText(t *testing.T) {
	en := NewMessages("en")
	assert.Equal(t, "No filters have been applied.", en.NoFilters())
	assert.Equal(t, "12 of 48 recipes", en.Count(12, 48))
	assert.Equal(t, "Could not load recipes. Please try again.", en.Errored(domain.ErrProviderError))

	fr := NewMessages("fr")
	assert.Equal(t, "Aucun filtre n'a été appliqué.", fr.NoFilters())
	assert.Equal(t, "12 sur 48 recettes", fr.Count(12, 48))
	assert.Equal(t, "Chargement des recettes...", fr.Loading())
}
