package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Characters Telegram requires escaped in MarkdownV2 text.
const markdownV2Special = "_*[]()~`>#+-=|{}.!\\"

var markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// ToMarkdownV2 converts common Markdown, as produced by the model, into
// Telegram's MarkdownV2 dialect. Headings become bold lines and list items
// get explicit bullets since MarkdownV2 has neither.
func ToMarkdownV2(src string) string {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))
	w := &mdv2Writer{src: source}
	w.blocks(doc, "\n\n")
	return strings.TrimSpace(w.b.String())
}

type mdv2Writer struct {
	src []byte
	b   strings.Builder
	// MarkdownV2 cannot nest an entity in itself, so inner markers are dropped.
	bold   bool
	italic bool
}

func (w *mdv2Writer) sub(render func(*mdv2Writer)) string {
	inner := &mdv2Writer{src: w.src}
	render(inner)
	return strings.TrimRight(inner.b.String(), "\n")
}

func (w *mdv2Writer) blocks(parent ast.Node, sep string) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if c != parent.FirstChild() {
			w.b.WriteString(sep)
		}
		w.block(c)
	}
}

func (w *mdv2Writer) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.inlines(n)
	case *ast.Heading:
		w.styled("*", &w.bold, n)
	case *ast.ThematicBreak:
		w.b.WriteString("———")
	case *ast.FencedCodeBlock:
		w.b.WriteString("```")
		if lang := n.Language(w.src); lang != nil {
			w.b.WriteString(escapeCode(string(lang)))
		}
		w.b.WriteByte('\n')
		w.codeLines(n)
		w.b.WriteString("```")
	case *ast.CodeBlock:
		w.b.WriteString("```\n")
		w.codeLines(n)
		w.b.WriteString("```")
	case *ast.Blockquote:
		inner := w.sub(func(iw *mdv2Writer) { iw.blocks(n, "\n") })
		for i, line := range strings.Split(inner, "\n") {
			if i > 0 {
				w.b.WriteByte('\n')
			}
			w.b.WriteByte('>')
			w.b.WriteString(line)
		}
	case *ast.List:
		w.list(n)
	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			w.b.WriteString(escapeText(string(seg.Value(w.src))))
		}
	default:
		if n.Type() == ast.TypeBlock && n.FirstChild() != nil && n.FirstChild().Type() == ast.TypeBlock {
			w.blocks(n, "\n\n")
			return
		}
		w.inlines(n)
	}
}

func (w *mdv2Writer) list(l *ast.List) {
	num := l.Start
	if num == 0 {
		num = 1
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		if item != l.FirstChild() {
			w.b.WriteByte('\n')
		}
		marker := "•"
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d\\.", num)
			num++
		}
		content := w.sub(func(iw *mdv2Writer) { iw.blocks(item, "\n") })
		w.b.WriteString(marker)
		w.b.WriteByte(' ')
		w.b.WriteString(strings.ReplaceAll(content, "\n", "\n  "))
	}
}

func (w *mdv2Writer) codeLines(n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		w.b.WriteString(escapeCode(string(seg.Value(w.src))))
	}
}

func (w *mdv2Writer) inlines(parent ast.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		w.inline(c)
	}
}

func (w *mdv2Writer) inline(n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		w.b.WriteString(escapeText(literal(n.Segment.Value(w.src))))
		if n.HardLineBreak() || n.SoftLineBreak() {
			w.b.WriteByte('\n')
		}
	case *ast.String:
		w.b.WriteString(escapeText(string(n.Value)))
	case *ast.CodeSpan:
		w.b.WriteByte('`')
		w.b.WriteString(escapeCode(w.plain(n)))
		w.b.WriteByte('`')
	case *ast.Emphasis:
		if n.Level >= 2 {
			w.styled("*", &w.bold, n)
		} else {
			w.styled("_", &w.italic, n)
		}
	case *east.Strikethrough:
		w.b.WriteByte('~')
		w.inlines(n)
		w.b.WriteByte('~')
	case *ast.Link:
		w.b.WriteByte('[')
		w.inlines(n)
		w.b.WriteString("](")
		w.b.WriteString(escapeURL(string(n.Destination)))
		w.b.WriteByte(')')
	case *ast.Image:
		w.b.WriteByte('[')
		w.inlines(n)
		w.b.WriteString("](")
		w.b.WriteString(escapeURL(string(n.Destination)))
		w.b.WriteByte(')')
	case *ast.AutoLink:
		w.b.WriteString(escapeText(string(n.URL(w.src))))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			w.b.WriteString(escapeText(string(seg.Value(w.src))))
		}
	default:
		w.inlines(n)
	}
}

// styled wraps n's inlines in mark unless that style is already open.
func (w *mdv2Writer) styled(mark string, open *bool, n ast.Node) {
	if *open {
		w.inlines(n)
		return
	}
	*open = true
	w.b.WriteString(mark)
	w.inlines(n)
	w.b.WriteString(mark)
	*open = false
}

// literal decodes Markdown backslash escapes and HTML character references
// the way goldmark's HTML renderer does.
func literal(v []byte) string {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return string(v)
}

// plain returns the raw text of a node's inline children.
func (w *mdv2Writer) plain(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(w.src))
		case *ast.String:
			b.Write(c.Value)
		default:
			b.WriteString(w.plain(c))
		}
	}
	return b.String()
}

func escapeWith(s, special string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func escapeText(s string) string { return escapeWith(s, markdownV2Special) }
func escapeCode(s string) string { return escapeWith(s, "`\\") }
func escapeURL(s string) string  { return escapeWith(s, ")\\") }

// splitMessage cuts text into chunks of at most limit runes, preferring line
// boundaries.
func splitMessage(s string, limit int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if c := strings.TrimSpace(cur.String()); c != "" {
			chunks = append(chunks, c)
		}
		cur.Reset()
		curLen = 0
	}
	for _, line := range strings.SplitAfter(s, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n <= limit {
			cur.WriteString(line)
			curLen += n
			continue
		}
		flush()
		for n > limit {
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen = n
	}
	flush()
	return chunks
}
