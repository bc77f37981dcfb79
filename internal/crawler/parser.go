package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// maxAnchorText bounds the anchor text kept per link.
const maxAnchorText = 200

// Parser extracts the anchors from an HTML page.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// scanning for href= with a regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Anchor text is only reachable through the DOM
//  3. <base href> can be honored when resolving relative links
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// Anchor is one <a href> found on a page.
type Anchor struct {
	// URL is the absolute link target with any fragment removed.
	URL string

	// Text is the visible anchor text with whitespace collapsed.
	Text string
}

// ParseResult contains the information extracted from an HTML page.
type ParseResult struct {
	// Anchors holds the resolved links in document order.
	Anchors []Anchor
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and collects the anchors.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Anchors: make([]Anchor, 0),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "base":
				p.applyBase(getAttr(n, "href"))
			case "a":
				if href := getAttr(n, "href"); href != "" {
					if resolved := p.resolveURL(href); resolved != "" {
						result.Anchors = append(result.Anchors, Anchor{
							URL:  resolved,
							Text: truncate(collapseSpace(nodeText(n)), maxAnchorText),
						})
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return result, nil
}

// applyBase honors <base href> for the rest of the document.
func (p *Parser) applyBase(href string) {
	if href == "" {
		return
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return
	}
	p.baseURL = p.baseURL.ResolveReference(u)
}

// resolveURL resolves a relative URL against the base URL.
// Non-navigational links (javascript:, mailto:, tel:, data:, bare
// fragments) resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:", "sms:", "ftp:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// nodeText concatenates all text below n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
