package results

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

// Message keys double as the English text.
const (
	msgLoading     = "Loading recipes..."
	msgEmpty       = "No recipes match the applied filters."
	msgErrored     = "Could not load recipes. Please try again."
	msgUnavailable = "The recipe service is unreachable. Please try again later."
	msgNoFilters   = "No filters have been applied."
	msgCount       = "%d of %d recipes"
)

var supported = []language.Tag{language.English, language.French}

var translations = catalog.NewBuilder(catalog.Fallback(language.English))

var french = map[string]string{
	msgLoading:     "Chargement des recettes...",
	msgEmpty:       "Aucune recette ne correspond aux filtres appliqués.",
	msgErrored:     "Impossible de charger les recettes. Veuillez réessayer.",
	msgUnavailable: "Le service de recettes est injoignable. Veuillez réessayer plus tard.",
	msgNoFilters:   "Aucun filtre n'a été appliqué.",
	msgCount:       "%d sur %d recettes",
}

func init() {
	for key, fr := range french {
		_ = translations.SetString(language.English, key, key)
		_ = translations.SetString(language.French, key, fr)
	}
}

// Messages renders the user-visible status strings in one locale.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMessages picks the closest supported locale; unknown or malformed
// locales fall back to English.
func NewMessages(locale string) *Messages {
	tag := language.English
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, conf := language.NewMatcher(supported).Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(translations)),
	}
}

// Locale returns the selected language.
func (m *Messages) Locale() language.Tag { return m.tag }

// Loading is shown while a request is in flight.
func (m *Messages) Loading() string { return m.printer.Sprintf(msgLoading) }

// Empty is shown for a valid response without recipes.
func (m *Messages) Empty() string { return m.printer.Sprintf(msgEmpty) }

// NoFilters is shown when no chip is applied.
func (m *Messages) NoFilters() string { return m.printer.Sprintf(msgNoFilters) }

// Count summarizes how many recipes are displayed out of the total.
func (m *Messages) Count(shown, total int) string {
	return m.printer.Sprintf(msgCount, shown, total)
}

// Errored describes a failed fetch without exposing internals.
func (m *Messages) Errored(err error) string {
	if errors.Is(err, domain.ErrProviderUnavailable) {
		return m.printer.Sprintf(msgUnavailable)
	}
	return m.printer.Sprintf(msgErrored)
}
