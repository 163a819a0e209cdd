package ai

import (
	"context"
	"regexp"
	"strings"
)

const (
	// shortTextThreshold is the minimum trimmed length worth a model call.
	shortTextThreshold = 50
	// shortTextCap bounds what the guard returns verbatim.
	shortTextCap = 200

	// maxChars caps the characters sent per summary request, keeping one call
	// within the provider's per-minute token budget.
	maxChars = 12000
	// chunkSize is the window size used when sampling long documents.
	chunkSize = 3500

	summaryMaxTokens = 500
)

const summarySystemPrompt = "You are a document summarizer. Write a clear, comprehensive summary " +
	"of the provided document. Your summary should:\n" +
	"- Be 5-8 sentences long\n" +
	"- Cover the main themes, key points, and conclusions\n" +
	"- For fiction: include genre, setting, main characters, and central conflict (no spoilers)\n" +
	"- For non-fiction: include the main argument, key evidence, and conclusions\n" +
	"- Start directly with the summary content — do NOT begin with phrases like " +
	"'Here is a summary' or 'This document is about' or 'The provided passage'\n" +
	"- Write in a natural, informative tone"

// preambleRes match lead-ins the model tends to prepend despite instructions.
// Each is applied at most once, in order.
var preambleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Here(?:'s| is) (?:a |the )?(?:\d+-?\d*\s+)?(?:sentence )?summary[:\s]*`),
	regexp.MustCompile(`(?i)^(?:The |This )(?:provided |given )?(?:document|text|passage|book|article)[:\s]+(?:is about|discusses|covers|describes)\s*`),
	regexp.MustCompile(`(?i)^Summary[:\s]*`),
}

// Summarize returns a 5-8 sentence summary of text. Text too short to be
// worth a call is returned as-is (capped at 200 runes); model failures come
// back wrapped in ErrUnavailable.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "No content available.", nil
	}
	if len(strings.TrimSpace(text)) < shortTextThreshold {
		return truncateRunes(text, shortTextCap), nil
	}

	docText := sampleDocument(strings.TrimSpace(text))

	raw, err := c.complete(ctx, summarySystemPrompt, "Summarize this document:\n\n"+docText, summaryMaxTokens)
	if err != nil {
		return "", err
	}
	return StripPreamble(raw), nil
}

// sampleDocument returns the text whole when it fits under maxChars, else a
// labeled beginning/middle/end sample so the model understands discontinuity.
func sampleDocument(clean string) string {
	runes := []rune(clean)
	if len(runes) <= maxChars {
		return clean
	}

	beginning := string(runes[:chunkSize])

	midStart := len(runes)/2 - chunkSize/2
	middle := string(runes[midStart : midStart+chunkSize])

	ending := string(runes[len(runes)-chunkSize:])

	return "[BEGINNING OF DOCUMENT]\n" + beginning +
		"\n\n[MIDDLE OF DOCUMENT]\n" + middle +
		"\n\n[END OF DOCUMENT]\n" + ending
}

// StripPreamble removes known model lead-ins from a summary. Exported for the
// enrichment tests that exercise post-processing without a live model.
func StripPreamble(summary string) string {
	summary = strings.TrimSpace(summary)
	for _, re := range preambleRes {
		summary = re.ReplaceAllString(summary, "")
	}
	return strings.TrimSpace(summary)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
