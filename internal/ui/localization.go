package ui

import (
	"errors"
	"fmt"
)

// ErrUnknownLanguage is returned for languages without translations
var ErrUnknownLanguage = errors.New("unknown language")

// SystemLanguage selects the default language
const SystemLanguage = "system"

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyEnterURL          = "enter_url"
	KeyAvailableFormats  = "available_formats"
	KeyChooseQuality     = "choose_quality"
	KeyNumberAtLeastZero = "number_at_least_zero"
	KeyInvalidNumber     = "invalid_number"
	KeyNoFormats         = "no_formats"
	KeyDownloadCompleted = "download_completed"
	KeyDownloadFailed    = "download_failed"
	KeyDownloadStopped   = "download_stopped"
	KeySavedTo           = "saved_to"
	KeyDownloading       = "downloading"
	KeyMerging           = "merging"
	KeyDownloadAnother   = "download_another"
	KeyDownloadDirectory = "download_directory"
	KeyExiting           = "exiting"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language. Unknown languages leave the
// current one in place and return ErrUnknownLanguage.
func (l *Localization) SetLanguage(lang string) error {
	if lang == SystemLanguage {
		// Use system locale - simplified to English for now
		lang = "en"
	}

	if _, exists := l.GetAvailableLanguages()[lang]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	l.currentLanguage = lang
	return nil
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts["en"]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// Textf formats the localized text for key with args
func (l *Localization) Textf(key string, args ...any) string {
	return fmt.Sprintf(l.GetText(key), args...)
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
		"pt": "Português",
	}
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	// English texts
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "=== YouTube Video Downloader ===",
		KeyEnterURL:          "Enter a YouTube video link (or 'q' to quit): ",
		KeyAvailableFormats:  "Available video formats:",
		KeyChooseQuality:     "Choose quality (0 - highest): ",
		KeyNumberAtLeastZero: "Please enter a number >= 0",
		KeyInvalidNumber:     "Please enter a valid number",
		KeyNoFormats:         "Failed to get video format information",
		KeyDownloadCompleted: "Video downloaded successfully in %s quality!",
		KeyDownloadFailed:    "An error occurred while downloading: %v",
		KeyDownloadStopped:   "Download stopped",
		KeySavedTo:           "Saved to %s",
		KeyDownloading:       "Downloading",
		KeyMerging:           "Merging",
		KeyDownloadAnother:   "Download another video? (y/n): ",
		KeyDownloadDirectory: "Download directory: %s",
		KeyExiting:           "Exiting...",
	}

	// Russian texts
	l.texts["ru"] = map[string]string{
		KeyAppTitle:          "=== YouTube Video Downloader ===",
		KeyEnterURL:          "Введите ссылку на видео YouTube (или 'q' для выхода): ",
		KeyAvailableFormats:  "Доступные форматы видео:",
		KeyChooseQuality:     "Выберите качество (0 - самое высокое): ",
		KeyNumberAtLeastZero: "Пожалуйста, введите число >= 0",
		KeyInvalidNumber:     "Пожалуйста, введите корректное число",
		KeyNoFormats:         "Не удалось получить информацию о форматах видео",
		KeyDownloadCompleted: "Видео успешно скачано в качестве %s!",
		KeyDownloadFailed:    "Произошла ошибка при скачивании: %v",
		KeyDownloadStopped:   "Загрузка остановлена",
		KeySavedTo:           "Сохранено в %s",
		KeyDownloading:       "Загрузка",
		KeyMerging:           "Объединение",
		KeyDownloadAnother:   "Хотите скачать еще видео? (y/n): ",
		KeyDownloadDirectory: "Папка загрузки: %s",
		KeyExiting:           "Выход...",
	}

	// Portuguese texts
	l.texts["pt"] = map[string]string{
		KeyAppTitle:          "=== YouTube Video Downloader ===",
		KeyEnterURL:          "Digite o link do vídeo do YouTube (ou 'q' para sair): ",
		KeyAvailableFormats:  "Formatos de vídeo disponíveis:",
		KeyChooseQuality:     "Escolha a qualidade (0 - a mais alta): ",
		KeyNumberAtLeastZero: "Por favor, digite um número >= 0",
		KeyInvalidNumber:     "Por favor, digite um número válido",
		KeyNoFormats:         "Não foi possível obter os formatos do vídeo",
		KeyDownloadCompleted: "Vídeo baixado com sucesso na qualidade %s!",
		KeyDownloadFailed:    "Ocorreu um erro ao baixar: %v",
		KeyDownloadStopped:   "Download interrompido",
		KeySavedTo:           "Salvo em %s",
		KeyDownloading:       "Baixando",
		KeyMerging:           "Mesclando",
		KeyDownloadAnother:   "Baixar outro vídeo? (y/n): ",
		KeyDownloadDirectory: "Diretório de download: %s",
		KeyExiting:           "Saindo...",
	}
}
