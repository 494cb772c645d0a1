package usecase

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"microblog/internal/feature/translate/domain/entity"
)

const (
	// MaxTextLength is the longest text accepted, counted in runes.
	MaxTextLength = 1000
	// PromptTemplate asks the model for a bare translation.
	PromptTemplate = "Translate the following text from %s to %s. Reply with the translation only, without quotes or commentary.\n\n%s"
)

// languageCode matches ISO 639-1 and 639-3 codes.
var languageCode = regexp.MustCompile(`^[a-z]{2,3}$`)

// Translator produces a model response for a prompt.
// Following Go convention, the interface is defined by the consumer (usecase).
type Translator interface {
	Translate(ctx context.Context, prompt string) (string, error)
}

// TranslateUsecase translates text into one of the configured languages.
type TranslateUsecase struct {
	translator Translator
	languages  []string
}

// NewTranslateUsecase creates a TranslateUsecase. A nil translator makes every call fail
// with ErrTranslatorUnavailable.
func NewTranslateUsecase(translator Translator, languages []string) *TranslateUsecase {
	return &TranslateUsecase{translator: translator, languages: languages}
}

// Languages returns the destination languages the service accepts.
func (u *TranslateUsecase) Languages() []string {
	return slices.Clone(u.languages)
}

// Translate renders text in dest. source may be empty when the original language is unknown.
func (u *TranslateUsecase) Translate(ctx context.Context, text, source, dest string) (*entity.Translation, error) {
	text = strings.TrimSpace(text)
	source = strings.ToLower(strings.TrimSpace(source))
	dest = strings.ToLower(strings.TrimSpace(dest))

	if text == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, ErrTextTooLong
	}
	if !slices.Contains(u.languages, dest) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, dest)
	}
	if source != "" && !languageCode.MatchString(source) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, source)
	}

	t := &entity.Translation{Text: text, SourceLanguage: source, DestLanguage: dest}
	if source == dest {
		t.Translated = text
		return t, nil
	}
	if u.translator == nil {
		return nil, ErrTranslatorUnavailable
	}

	from := source
	if from == "" {
		from = "the detected language"
	}
	out, err := u.translator.Translate(ctx, fmt.Sprintf(PromptTemplate, from, dest, text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranslatorUnavailable, err)
	}
	t.Translated = strings.TrimSpace(out)
	return t, nil
}
