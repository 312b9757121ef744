package web

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	mdRenderer = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

	// promptPolicy allows the inline emphasis confirmation prompts use.
	promptPolicy = bluemonday.NewPolicy().AllowElements("p", "strong", "em", "del", "br", "code")

	// textPolicy strips all markup from backend-provided messages.
	textPolicy = bluemonday.StrictPolicy()
)

// RenderPrompt converts a markdown confirmation prompt to sanitised HTML.
// Returns empty string for empty input.
func RenderPrompt(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return textPolicy.Sanitize(src)
	}
	return promptPolicy.Sanitize(buf.String())
}

// SanitizeMessage returns msg as escaped text with any markup removed. Toast
// messages may carry backend-provided text.
func SanitizeMessage(msg string) string {
	return textPolicy.Sanitize(msg)
}
