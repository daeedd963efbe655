package ui

import (
	"errors"
	"testing"
)

func TestLocalization_SetLanguage(t *testing.T) {
	loc := NewLocalization()

	if loc.GetCurrentLanguage() != "en" {
		t.Errorf("Expected default language en, got %s", loc.GetCurrentLanguage())
	}

	if err := loc.SetLanguage("ru"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if loc.GetCurrentLanguage() != "ru" {
		t.Errorf("Expected ru, got %s", loc.GetCurrentLanguage())
	}

	if err := loc.SetLanguage("xx"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("Expected ErrUnknownLanguage, got %v", err)
	}
	if loc.GetCurrentLanguage() != "ru" {
		t.Errorf("Expected unknown language to be ignored, got %s", loc.GetCurrentLanguage())
	}

	if err := loc.SetLanguage(SystemLanguage); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if loc.GetCurrentLanguage() != "en" {
		t.Errorf("Expected system to map to en, got %s", loc.GetCurrentLanguage())
	}
}

func TestLocalization_AllKeysTranslated(t *testing.T) {
	loc := NewLocalization()
	english := loc.texts["en"]

	for lang := range loc.GetAvailableLanguages() {
		texts, ok := loc.texts[lang]
		if !ok {
			t.Errorf("Language %s has no texts", lang)
			continue
		}
		for key := range english {
			if texts[key] == "" {
				t.Errorf("Language %s is missing key %s", lang, key)
			}
		}
	}
}

func TestLocalization_Fallbacks(t *testing.T) {
	loc := NewLocalization()

	if got := loc.GetText("no_such_key"); got != "no_such_key" {
		t.Errorf("Expected key fallback, got %q", got)
	}

	if got := loc.Textf(KeyDownloadCompleted, "720p"); got != "Video downloaded successfully in 720p quality!" {
		t.Errorf("Unexpected Textf result %q", got)
	}
}
