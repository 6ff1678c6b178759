package radar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	rpdf "rsc.io/pdf"
)

// dateSnippetRegexes match the date formats editais actually use.
var dateSnippetRegexes = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/20\d{2}\b`),
	regexp.MustCompile(`\b20\d{2}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+de\s+(janeiro|fevereiro|março|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro)\s+de\s+20\d{2}\b`),
}

var aberturaLabelHints = []string{
	"abertura", "sessão pública", "sessao publica", "recebimento das propostas", "data limite",
}

// maxPDFBytes bounds how much of an edital we download for date extraction.
const maxPDFBytes = 10 << 20

func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		// rsc.io/pdf panics on malformed files
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// findDateCandidate returns the first date token in the text, preferring one
// whose surrounding snippet mentions an opening-session label.
func findDateCandidate(text string) string {
	var first string
	for _, expr := range dateSnippetRegexes {
		for _, loc := range expr.FindAllStringIndex(text, -1) {
			token := strings.TrimSpace(text[loc[0]:loc[1]])
			if first == "" {
				first = token
			}

			start := loc[0] - 60
			if start < 0 {
				start = 0
			}
			snippet := strings.ToLower(text[start:loc[1]])
			for _, hint := range aberturaLabelHints {
				if strings.Contains(snippet, hint) {
					return token
				}
			}
		}
	}
	return first
}

// extractDateFromPDF downloads an edital attachment and pulls a date candidate
// out of its text. Used only as a last resort when the structured entry has no
// date fields.
func extractDateFromPDF(ctx context.Context, client *http.Client, pdfURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pdfURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return "", fmt.Errorf("pdf read failed: %w", err)
	}

	text, err := extractPDFText(content)
	if err != nil {
		return "", fmt.Errorf("pdf text extraction failed: %w", err)
	}

	date := findDateCandidate(text)
	if date == "" {
		return "", fmt.Errorf("no date candidate in %s", pdfURL)
	}
	return date, nil
}
