// Package markdown renders the portal's constrained markdown dialect
// to HTML fragments. The dialect covers inline code, bold, italic and
// links plus fenced code blocks, unordered and ordered lists and
// paragraphs. Everything else is plain text.
package markdown

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	g "maragu.dev/gomponents"
)

// Placeholder is emitted for empty or whitespace-only input so a text
// section never renders as a bare gap.
const Placeholder = `<p class="placeholder">暂无内容</p>`

var (
	reCode      = regexp.MustCompile("`([^`]+)`")
	reBold      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic    = regexp.MustCompile(`\*([^*]+?)\*`)
	reLink      = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	reUnordered = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)
	reOrdered   = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)
)

// FormatInline applies the inline substitutions to already-escaped
// text, in order: code, bold, italic, link. Each substitution hides
// its output from the later passes, so markers inside an already
// formatted span stay literal instead of nesting.
func FormatInline(s string) string {
	var spans []string
	stash := func(markup string) string {
		spans = append(spans, markup)
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	}
	out := reCode.ReplaceAllStringFunc(s, func(m string) string {
		return stash("<code>" + reCode.FindStringSubmatch(m)[1] + "</code>")
	})
	out = reBold.ReplaceAllStringFunc(out, func(m string) string {
		return stash("<strong>" + reBold.FindStringSubmatch(m)[1] + "</strong>")
	})
	out = reItalic.ReplaceAllStringFunc(out, func(m string) string {
		return stash("<em>" + reItalic.FindStringSubmatch(m)[1] + "</em>")
	})
	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		parts := reLink.FindStringSubmatch(m)
		return stash(`<a href="` + parts[2] + `" target="_blank" rel="noopener">` + parts[1] + `</a>`)
	})
	// Later spans may embed earlier ones, never the reverse.
	for i := len(spans) - 1; i >= 0; i-- {
		out = strings.ReplaceAll(out, "\x00"+strconv.Itoa(i)+"\x00", spans[i])
	}
	return out
}

// Render converts text to an HTML fragment. Literal text is escaped
// before any markup is introduced, so markup in the output is only
// ever structural. Render is total: any input, including none, yields
// well-formed markup.
func Render(text string) string {
	if strings.TrimSpace(text) == "" {
		return Placeholder
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		out       strings.Builder
		paragraph []string
		items     []string
		listTag   string
		fence     []string
		inFence   bool
	)
	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		out.WriteString("<p>" + FormatInline(strings.Join(paragraph, " ")) + "</p>")
		paragraph = nil
	}
	flushList := func() {
		if listTag == "" {
			return
		}
		out.WriteString("<" + listTag + ">")
		for _, item := range items {
			out.WriteString("<li>" + item + "</li>")
		}
		out.WriteString("</" + listTag + ">")
		items = nil
		listTag = ""
	}
	flushFence := func() {
		out.WriteString("<pre><code>" + strings.Join(fence, "\n") + "</code></pre>")
		fence = nil
		inFence = false
	}

	for _, line := range strings.Split(text, "\n") {
		if inFence {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				flushFence()
				continue
			}
			fence = append(fence, html.EscapeString(line))
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			flushParagraph()
			flushList()
			inFence = true
			continue
		}
		escaped := html.EscapeString(line)
		if m := reUnordered.FindStringSubmatch(escaped); m != nil {
			flushParagraph()
			if listTag != "ul" {
				flushList()
				listTag = "ul"
			}
			items = append(items, FormatInline(m[1]))
			continue
		}
		if m := reOrdered.FindStringSubmatch(escaped); m != nil {
			flushParagraph()
			if listTag != "ol" {
				flushList()
				listTag = "ol"
			}
			items = append(items, FormatInline(m[1]))
			continue
		}
		if strings.TrimSpace(line) == "" {
			flushParagraph()
			flushList()
			continue
		}
		flushList()
		paragraph = append(paragraph, strings.TrimSpace(escaped))
	}
	if inFence {
		flushFence()
	}
	flushParagraph()
	flushList()
	return out.String()
}

// Node renders text and wraps the fragment for embedding in a
// component tree.
func Node(text string) g.Node {
	return g.Raw(Render(text))
}
