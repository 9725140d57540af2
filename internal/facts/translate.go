package facts

import (
	"fmt"
	"log/slog"
)

// Translator turns a source string into its localized form.
// The hint selects a variant (e.g. "FEMININE") when the locale has one.
type Translator interface {
	Translate(s, locale, hint string) string
}

// IdentityTranslator returns strings untouched.
type IdentityTranslator struct{}

// Translate implements Translator.
func (IdentityTranslator) Translate(s, _, _ string) string {
	return s
}

// StoreTranslator reads translations from the translations collection, where each document
// is keyed by its source string and holds one field per locale ("en", "en_FEMININE"...).
type StoreTranslator struct {
	store Store
}

// NewStoreTranslator creates a translator backed by store.
func NewStoreTranslator(store Store) *StoreTranslator {
	return &StoreTranslator{store: store}
}

// Translate implements Translator. Unresolved keys fall back to the original string.
func (t *StoreTranslator) Translate(s, locale, hint string) string {
	if locale == "" {
		return s
	}
	doc, found, err := t.store.GetDocument(TranslationsCollection, s)
	if err != nil {
		slog.Warn("translation lookup", "error", err, "string", s)
		return s
	}
	if !found {
		return s
	}

	keys := []string{locale}
	if hint != "" {
		keys = []string{locale + "_" + hint, locale}
	}
	for _, key := range keys {
		if value, ok := doc[key]; ok && value != nil {
			if translated := fmt.Sprint(value); translated != "" {
				return translated
			}
		}
	}
	return s
}
