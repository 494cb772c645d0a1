// Package dto defines the wire types of the translate endpoint.
package dto

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	SourceLanguage string `json:"source_language"`
	DestLanguage   string `json:"dest_language" binding:"required"`
}

// TranslateResponse carries the translated text.
type TranslateResponse struct {
	Text string `json:"text"`
}
