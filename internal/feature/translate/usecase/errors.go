// Package usecase implements on-demand translation of post text.
package usecase

import "errors"

var (
	// ErrEmptyText is returned when there is nothing to translate.
	ErrEmptyText = errors.New("text is empty")

	// ErrTextTooLong is returned when the text exceeds MaxTextLength runes.
	ErrTextTooLong = errors.New("text is too long")

	// ErrUnsupportedLanguage is returned for a destination outside the configured languages
	// or a malformed language code.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrTranslatorUnavailable is returned when no translation backend is configured
	// or the backend failed.
	ErrTranslatorUnavailable = errors.New("translation service unavailable")
)
