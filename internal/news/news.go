// Package news turns a topic into a ranked list of headlines scraped from a
// news search page.
package news

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const searchBase = "https://news.google.com/search"

// moreToken terminates a story block in the scraped search layout.
const moreToken = "More"

// SearchURL returns the date-sorted search URL for a topic.
func SearchURL(topic string) string {
	return searchBase + "?q=" + url.QueryEscape(topic) + "&tbs=sbd:1"
}

// SearchURLs maps each topic to its search URL.
func SearchURLs(topics []string) map[string]string {
	out := make(map[string]string, len(topics))
	for _, t := range topics {
		out[t] = SearchURL(t)
	}
	return out
}

// CleanHTML collapses markup to its visible text, one text node per line.
func CleanHTML(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

func collectText(sel *goquery.Selection, out *[]string) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "#text":
			*out = append(*out, s.Text())
		case "#comment", "#doctype":
		default:
			collectText(s, out)
		}
	})
}

// ExtractHeadlines groups consecutive non-blank lines into story blocks,
// closing a block at each "More" line, and keeps the first line of every
// block. Duplicate headlines are dropped, document order is kept.
//
// Text without any "More" line yields a single headline.
func ExtractHeadlines(text string) []string {
	var (
		headlines []string
		current   []string
		seen      = make(map[string]bool)
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		if h := current[0]; !seen[h] {
			seen[h] = true
			headlines = append(headlines, h)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		l := strings.TrimSpace(line)
		if l == "" {
			continue
		}
		if l == moreToken && len(current) > 0 {
			flush()
			continue
		}
		current = append(current, l)
	}
	flush()
	return headlines
}

// Headlines cleans markup and extracts its headlines in one step.
func Headlines(markup string) ([]string, error) {
	text, err := CleanHTML(markup)
	if err != nil {
		return nil, err
	}
	return ExtractHeadlines(text), nil
}
