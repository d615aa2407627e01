package reduce

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// SizeBudget is the target output size in characters. Above roughly this
// point the extraction service's context use and latency degrade and long
// responses start truncating mid-plan.
const SizeBudget = 20_000

// noiseSelector matches tags that never carry visible pricing text.
const noiseSelector = "script, style, svg, noscript, link, meta, iframe, img, picture, source, video, audio, canvas, map, object, embed"

// chromeSelector matches site-chrome containers. Pricing cards live in
// main/section/article/div, not in these.
const chromeSelector = "nav, footer, header"

// keepAttrs is the attribute allow-list applied in pass 3. These carry
// semantic meaning the extraction service can use; everything else is
// styling or automation metadata.
var keepAttrs = map[string]bool{
	"aria-label":  true,
	"alt":         true,
	"title":       true,
	"role":        true,
	"data-testid": true,
}

// preserveEmpty lists tags kept even with no text content. Table structure
// is meaningful to the extraction service, and the parser-inserted document
// scaffolding must survive so the output stays parseable.
var preserveEmpty = map[string]bool{
	"br": true, "hr": true,
	"td": true, "th": true, "tr": true, "thead": true, "tbody": true, "table": true,
	"html": true, "head": true, "body": true,
}

// emptyPrunePasses bounds pass 4. Removing an empty child can empty its
// parent, so the pass repeats, but never unboundedly.
const emptyPrunePasses = 3

// pricingKeywords identifies pricing-dense sections during truncation.
var pricingKeywords = regexp.MustCompile(`(?i)\$|€|£|¥|₹|R\$|/month|/year|/mo|/yr|per month|per year|annually|pricing|plan[s ]|subscribe|subscription|premium|pro |enterprise|free tier|free plan|contact.?sales|get started|upgrade|billing`)

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	blankLines  = regexp.MustCompile(`\n\s*\n+`)
	betweenTags = regexp.MustCompile(`>\s+<`)
)

// Reduce deterministically shrinks raw page markup to a bounded,
// pricing-dense representation. It is a pure function and never fails: on a
// malformed document it falls back to a truncated prefix of the input.
//
// Passes, in order: remove noise tags and comments, remove site chrome,
// strip non-semantic attributes, prune empty elements, collapse whitespace.
// If the result still exceeds SizeBudget, Truncate picks the densest
// pricing content (see truncate).
func Reduce(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return hardCut(raw, SizeBudget)
	}

	removeNoise(doc)
	doc.Find(chromeSelector).Remove()
	stripAttributes(doc)
	pruneEmpty(doc)

	result := collapseWhitespace(render(doc.Selection))
	if len(result) > SizeBudget {
		result = truncate(doc, result)
	}
	return result
}

func removeNoise(doc *goquery.Document) {
	doc.Find(noiseSelector).Remove()
	removeComments(doc.Selection)
}

func removeComments(sel *goquery.Selection) {
	for _, n := range sel.Nodes {
		stripCommentNodes(n)
	}
}

func stripCommentNodes(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			stripCommentNodes(c)
		}
		c = next
	}
}

func stripAttributes(doc *goquery.Document) {
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if keepAttrs[strings.ToLower(a.Key)] {
					kept = append(kept, a)
				}
			}
			n.Attr = kept
		}
	})
}

func pruneEmpty(doc *goquery.Document) {
	for i := 0; i < emptyPrunePasses; i++ {
		changed := false
		doc.Find("*").Each(func(_ int, s *goquery.Selection) {
			name := goquery.NodeName(s)
			if preserveEmpty[name] {
				return
			}
			if strings.TrimSpace(s.Text()) == "" {
				s.Remove()
				changed = true
			}
		})
		if !changed {
			break
		}
	}
}

func collapseWhitespace(s string) string {
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n")
	s = betweenTags.ReplaceAllString(s, "> <")
	return strings.TrimSpace(s)
}

func render(sel *goquery.Selection) string {
	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return out
}

// truncate shrinks an over-budget document. Strategies in priority order:
// the primary-content region when one exists and fits, pricing sections
// scored by keyword density, and finally a hard cut from the end (pricing
// content sits above the fold in source order on almost every page).
func truncate(doc *goquery.Document, cleaned string) string {
	// Primary content: an explicit <main> first, then readability's guess.
	if main := doc.Find("main").First(); main.Length() > 0 {
		candidate := collapseWhitespace(render(main))
		if len(candidate) <= SizeBudget {
			return candidate
		}
	}
	if candidate := primaryContent(cleaned); candidate != "" && len(candidate) <= SizeBudget {
		return candidate
	}

	// Keyword-dense sections.
	type scored struct {
		density float64
		html    string
	}
	var sections []scored
	total := 0
	doc.Find("section, div, main, article").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !pricingKeywords.MatchString(text) {
			return
		}
		h := render(s)
		matches := len(pricingKeywords.FindAllStringIndex(h, -1))
		d := float64(matches) / float64(max(len(h), 1))
		sections = append(sections, scored{density: d, html: h})
		total += len(h)
	})
	if len(sections) > 0 {
		if total <= SizeBudget {
			parts := make([]string, 0, len(sections))
			for _, sec := range sections {
				parts = append(parts, sec.html)
			}
			return collapseWhitespace(strings.Join(parts, " "))
		}
		sort.SliceStable(sections, func(i, j int) bool {
			return sections[i].density > sections[j].density
		})
		var parts []string
		size := 0
		for _, sec := range sections {
			if size+len(sec.html) > SizeBudget {
				break
			}
			parts = append(parts, sec.html)
			size += len(sec.html)
		}
		if len(parts) > 0 {
			return collapseWhitespace(strings.Join(parts, " "))
		}
	}

	return hardCut(cleaned, SizeBudget)
}

// primaryContent runs readability over the cleaned markup and returns the
// collapsed article body, or "" when no region is identified.
func primaryContent(cleaned string) string {
	u, _ := url.Parse("https://localhost/")
	article, err := readability.FromReader(strings.NewReader(cleaned), u)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return ""
	}
	return collapseWhitespace(article.Content)
}

// hardCut truncates to at most n bytes without splitting a rune.
func hardCut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
