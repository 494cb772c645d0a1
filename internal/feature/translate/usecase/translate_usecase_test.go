package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/feature/translate/usecase"
)

// ErrAPI is shared between the mock and the expectations.
var ErrAPI = errors.New("api error")

// mockTranslator is a mock implementation of Translator.
type mockTranslator struct {
	TranslateFunc  func(ctx context.Context, prompt string) (string, error)
	TranslateCalls int
	LastPrompt     string
}

func (m *mockTranslator) Translate(ctx context.Context, prompt string) (string, error) {
	m.TranslateCalls++
	m.LastPrompt = prompt
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, prompt)
	}
	return "", errors.New("TranslateFunc is not implemented")
}

func TestTranslateUsecase_Translate(t *testing.T) {
	languages := []string{"en", "ha"}

	testCases := []struct {
		name           string
		text           string
		source         string
		dest           string
		mockFunc       func(ctx context.Context, prompt string) (string, error)
		expectedText   string
		expectedSource string
		expectedErr    error
		expectedCalls  int
		promptContains []string
	}{
		{
			name:   "success: translated",
			text:   "  Sannu duniya ",
			source: "HA",
			dest:   "en",
			mockFunc: func(ctx context.Context, prompt string) (string, error) {
				return " Hello world\n", nil
			},
			expectedText:   "Hello world",
			expectedSource: "ha",
			expectedCalls:  1,
			promptContains: []string{"from ha to en", "Sannu duniya"},
		},
		{
			name:   "success: unknown source language",
			text:   "hola",
			source: "",
			dest:   "en",
			mockFunc: func(ctx context.Context, prompt string) (string, error) {
				return "hello", nil
			},
			expectedText:   "hello",
			expectedCalls:  1,
			promptContains: []string{"from the detected language to en"},
		},
		{
			name:           "success: same language skips the translator",
			text:           "hello",
			source:         "en",
			dest:           "en",
			expectedText:   "hello",
			expectedSource: "en",
		},
		{
			name:        "error: empty text",
			text:        "   ",
			dest:        "en",
			expectedErr: usecase.ErrEmptyText,
		},
		{
			name:        "error: text too long",
			text:        strings.Repeat("a", usecase.MaxTextLength+1),
			dest:        "en",
			expectedErr: usecase.ErrTextTooLong,
		},
		{
			name:        "error: destination not configured",
			text:        "hello",
			dest:        "fr",
			expectedErr: usecase.ErrUnsupportedLanguage,
		},
		{
			name:        "error: malformed source",
			text:        "hello",
			source:      "english",
			dest:        "ha",
			expectedErr: usecase.ErrUnsupportedLanguage,
		},
		{
			name:   "error: api returns error",
			text:   "hello",
			source: "en",
			dest:   "ha",
			mockFunc: func(ctx context.Context, prompt string) (string, error) {
				return "", ErrAPI
			},
			expectedErr:   usecase.ErrTranslatorUnavailable,
			expectedCalls: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockTranslator{TranslateFunc: tc.mockFunc}
			uc := usecase.NewTranslateUsecase(mock, languages)

			got, err := uc.Translate(context.Background(), tc.text, tc.source, tc.dest)

			assert.Equal(t, tc.expectedCalls, mock.TranslateCalls)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedText, got.Translated)
			assert.Equal(t, tc.expectedSource, got.SourceLanguage)
			assert.Equal(t, tc.dest, got.DestLanguage)
			for _, s := range tc.promptContains {
				assert.Contains(t, mock.LastPrompt, s)
			}
		})
	}
}

func TestTranslateUsecase_NoBackend(t *testing.T) {
	uc := usecase.NewTranslateUsecase(nil, []string{"en", "ha"})

	_, err := uc.Translate(context.Background(), "hello", "en", "ha")
	assert.ErrorIs(t, err, usecase.ErrTranslatorUnavailable)

	// Identity translations still work.
	got, err := uc.Translate(context.Background(), "hello", "en", "en")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Translated)
}

func TestTranslateUsecase_Languages(t *testing.T) {
	langs := []string{"en", "ha"}
	uc := usecase.NewTranslateUsecase(nil, langs)

	got := uc.Languages()
	assert.Equal(t, langs, got)

	got[0] = "xx"
	assert.Equal(t, "en", uc.Languages()[0], "Languages returns a copy")
}
