// Package entity defines the domain models for the translate feature.
package entity

// Translation is a piece of text rendered in another language.
type Translation struct {
	Text           string
	SourceLanguage string // Empty when the source language is unknown
	DestLanguage   string
	Translated     string
}
