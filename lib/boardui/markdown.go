// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// markdownParserInstance is initialized once and reused. The parser
// configuration never changes and the goldmark Parser is safe to
// share; actual parsing creates per-call state via Parse(reader).
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownParserInstance
}

// renderTerminalMarkdown parses a ticket description as markdown and
// renders it as styled terminal output. Soft line breaks become
// spaces so hard-wrapped source reflows at any terminal width; code
// blocks and lists keep their structure.
func renderTerminalMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	// Force the ANSI256 profile: this output is always for terminal
	// display, and auto-detection yields uncolored output when no TTY
	// is attached (tests, piped output).
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &markdownRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks a goldmark AST and produces styled terminal
// text. It uses a direct ast.Walk rather than goldmark's renderer
// interface because terminal rendering needs accumulate-then-wrap
// semantics: paragraph inline content collects in a buffer and gets
// word-wrapped as a unit when the paragraph closes.
type markdownRenderer struct {
	source []byte
	theme  Theme
	width  int

	output strings.Builder

	// Inline accumulator, flushed with word-wrap when the containing
	// block closes.
	inline strings.Builder

	// Indent for nested lists; bullet replaces it on the first line of
	// a list item. itemIndents records how much each open list item
	// added so leaving pops exactly that.
	indent        string
	itemIndents   []int
	pendingBullet string

	// Counters rather than booleans so nested emphasis nests.
	boldCount   int
	italicCount int

	listStack []listLevel

	lipRenderer *lipgloss.Renderer

	trailingNewlines int
}

type listLevel struct {
	ordered bool
	counter int
}

func (renderer *markdownRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *markdownRenderer) currentWidth() int {
	width := renderer.width - len([]rune(renderer.indent))
	if width < 10 {
		width = 10
	}
	return width
}

func (renderer *markdownRenderer) writeOutput(s string) {
	if s == "" {
		return
	}
	renderer.output.WriteString(s)

	trailing := 0
	allNewlines := true
	for index := len(s) - 1; index >= 0; index-- {
		if s[index] != '\n' {
			allNewlines = false
			break
		}
		trailing++
	}
	if allNewlines {
		renderer.trailingNewlines += trailing
	} else {
		renderer.trailingNewlines = trailing
	}
}

func (renderer *markdownRenderer) ensureNewline() {
	if renderer.trailingNewlines < 1 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) ensureBlankLine() {
	for renderer.trailingNewlines < 2 {
		renderer.writeOutput("\n")
	}
}

// flushInline word-wraps the accumulated inline content, applies the
// indent (or pending bullet on the first line), and returns the
// result.
func (renderer *markdownRenderer) flushInline() string {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return ""
	}

	content = ansi.Wrap(content, renderer.currentWidth(), " ,.;-+|")
	lines := strings.Split(content, "\n")
	var result strings.Builder
	for index, line := range lines {
		if index == 0 && renderer.pendingBullet != "" {
			result.WriteString(renderer.pendingBullet)
			renderer.pendingBullet = ""
		} else {
			result.WriteString(renderer.indent)
		}
		result.WriteString(line)
		if index < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

func (renderer *markdownRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	return style.Render(content)
}

// highlightCode syntax-highlights code with Chroma, falling back to
// FaintText-styled plain text for unknown languages.
func (renderer *markdownRenderer) highlightCode(code, language string) string {
	if language == "" {
		return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}
	return buffer.String()
}

func (renderer *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch typed := node.(type) {

	case *ast.Document:

	case *ast.Heading:
		if entering {
			renderer.ensureBlankLine()
		} else {
			content := renderer.inline.String()
			renderer.inline.Reset()
			style := renderer.newStyle().
				Foreground(renderer.theme.HeaderForeground).
				Bold(true)
			marker := strings.Repeat("#", typed.Level) + " "
			renderer.writeOutput(renderer.indent + style.Render(marker+content) + "\n")
		}

	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			if _, isParagraph := node.(*ast.Paragraph); isParagraph {
				if renderer.pendingBullet == "" {
					renderer.ensureBlankLine()
				}
			}
		} else {
			renderer.writeOutput(renderer.flushInline())
			renderer.ensureNewline()
		}

	case *ast.FencedCodeBlock:
		if entering {
			renderer.ensureBlankLine()
			renderer.renderCodeLines(typed.Lines(), string(typed.Language(renderer.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			renderer.ensureBlankLine()
			renderer.renderCodeLines(typed.Lines(), "")
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		if entering {
			renderer.ensureNewline()
			renderer.listStack = append(renderer.listStack, listLevel{
				ordered: typed.IsOrdered(),
				counter: typed.Start,
			})
		} else {
			renderer.listStack = renderer.listStack[:len(renderer.listStack)-1]
		}

	case *ast.ListItem:
		if entering {
			level := &renderer.listStack[len(renderer.listStack)-1]
			bullet := "• "
			if level.ordered {
				bullet = fmt.Sprintf("%d. ", level.counter)
				level.counter++
			}
			renderer.pendingBullet = renderer.indent + bullet
			width := len([]rune(bullet))
			renderer.itemIndents = append(renderer.itemIndents, width)
			renderer.indent += strings.Repeat(" ", width)
		} else {
			width := renderer.itemIndents[len(renderer.itemIndents)-1]
			renderer.itemIndents = renderer.itemIndents[:len(renderer.itemIndents)-1]
			renderer.indent = renderer.indent[:len(renderer.indent)-width]
			renderer.pendingBullet = ""
			renderer.ensureNewline()
		}

	case *ast.Blockquote:
		if entering {
			renderer.ensureBlankLine()
			renderer.indent += "│ "
		} else {
			renderer.indent = strings.TrimSuffix(renderer.indent, "│ ")
		}

	case *ast.ThematicBreak:
		if entering {
			renderer.ensureBlankLine()
			rule := strings.Repeat("─", renderer.currentWidth())
			renderer.writeOutput(renderer.indent +
				renderer.newStyle().Foreground(renderer.theme.BorderColor).Render(rule) + "\n")
		}

	case *ast.Text:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(typed.Segment.Value(renderer.source))))
			if typed.SoftLineBreak() {
				renderer.inline.WriteString(" ")
			}
			if typed.HardLineBreak() {
				renderer.inline.WriteString("\n")
			}
		}

	case *ast.Emphasis:
		if typed.Level >= 2 {
			if entering {
				renderer.boldCount++
			} else {
				renderer.boldCount--
			}
		} else {
			if entering {
				renderer.italicCount++
			} else {
				renderer.italicCount--
			}
		}

	case *ast.CodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			style := renderer.newStyle().
				Foreground(renderer.theme.StatusTodo).
				Background(renderer.theme.SelectedBackground)
			renderer.inline.WriteString(style.Render(code.String()))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if !entering {
			destination := string(typed.Destination)
			style := renderer.newStyle().Foreground(renderer.theme.StatusProposed).Underline(true)
			renderer.inline.WriteString(" " + style.Render("("+destination+")"))
		}

	case *ast.AutoLink:
		if entering {
			url := string(typed.URL(renderer.source))
			style := renderer.newStyle().Foreground(renderer.theme.StatusProposed).Underline(true)
			renderer.inline.WriteString(style.Render(url))
		}
	}

	return ast.WalkContinue, nil
}

// renderCodeLines emits a code block's lines, highlighted as a unit so
// multi-line constructs color correctly.
func (renderer *markdownRenderer) renderCodeLines(lines *text.Segments, language string) {
	var code strings.Builder
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(renderer.source))
	}
	highlighted := renderer.highlightCode(strings.TrimRight(code.String(), "\n"), language)
	for _, line := range strings.Split(highlighted, "\n") {
		renderer.writeOutput(renderer.indent + "  " + line + "\n")
	}
}
