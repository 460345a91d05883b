package askme

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// FallbackDetail is shown when a failed response carries no usable detail.
const FallbackDetail = "Something went wrong"

// APIError is a non-2xx answer from the chat endpoint.
type APIError struct {
	StatusCode int
	Detail     string // human-readable, never empty
	Body       string // raw body excerpt, for logs
}

// Error returns the detail alone; it is what the user gets to read.
func (e *APIError) Error() string {
	return e.Detail
}

// newAPIError builds an APIError from a failed response body.
func newAPIError(status int, contentType string, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Detail:     parseDetail(body),
		Body:       describeBody(contentType, body),
	}
}

// parseDetail extracts the string "detail" field, or FallbackDetail.
func parseDetail(body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return FallbackDetail
	}

	var detail string
	if err := json.Unmarshal(errResp.Detail, &detail); err != nil {
		return FallbackDetail
	}
	if strings.TrimSpace(detail) == "" {
		return FallbackDetail
	}
	return detail
}

// describeBody shortens a body for logging. HTML error pages from proxies
// are reduced to their visible text.
func describeBody(contentType string, body []byte) string {
	text := string(body)
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		if extracted, err := htmlText(body); err == nil {
			text = extracted
		}
	}
	return truncate(strings.Join(strings.Fields(text), " "), 200)
}

// htmlText returns the title and body text of an HTML document
func htmlText(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(sb.String()), nil
}

// truncate shortens s to at most maxLen bytes without splitting a rune
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
