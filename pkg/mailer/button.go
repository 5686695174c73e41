package mailer

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// buttonPrefix is the inline syntax that triggers button parsing:
// [!button|Label](URL) renders as an anchor with a btn class, which email
// layouts style as a call-to-action button.
const buttonPrefix = "[!button|"

// ButtonNode represents a button link in the markdown AST.
type ButtonNode struct {
	ast.BaseInline
	URL   []byte
	Label []byte
}

// KindButton is the node kind for ButtonNode.
var KindButton = ast.NewNodeKind("Button")

func (n *ButtonNode) Kind() ast.NodeKind {
	return KindButton
}

func (n *ButtonNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type buttonParser struct{}

func (s *buttonParser) Trigger() []byte {
	return []byte{'['}
}

func (s *buttonParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if line == nil {
		return nil
	}

	if len(line) < len(buttonPrefix) || string(line[:len(buttonPrefix)]) != buttonPrefix {
		return nil
	}

	labelEnd := -1
	for i := len(buttonPrefix); i < len(line); i++ {
		if line[i] == ']' {
			labelEnd = i
			break
		}
	}
	if labelEnd == -1 {
		return nil
	}
	label := line[len(buttonPrefix):labelEnd]

	if labelEnd+1 >= len(line) || line[labelEnd+1] != '(' {
		return nil
	}

	urlStart := labelEnd + 2
	urlEnd := -1
	for i := urlStart; i < len(line); i++ {
		if line[i] == ')' {
			urlEnd = i
			break
		}
	}
	if urlEnd == -1 {
		return nil
	}

	block.Advance(urlEnd + 1)

	return &ButtonNode{
		URL:   line[urlStart:urlEnd],
		Label: label,
	}
}

type buttonRenderer struct {
	html.Config
}

func (r *buttonRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, r.renderButton)
}

func (r *buttonRenderer) renderButton(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ButtonNode)
	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML(n.URL))
	_, _ = w.WriteString(`" class="btn">`)
	_, _ = w.Write(util.EscapeHTML(n.Label))
	_, _ = w.WriteString(`</a>`)

	return ast.WalkContinue, nil
}

// ButtonExtension adds [!button|Label](URL) syntax to goldmark.
type ButtonExtension struct{}

func (e *ButtonExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&buttonParser{}, 50),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&buttonRenderer{Config: html.NewConfig()}, 50),
	))
}

// NewButtonExtension creates the button extension.
func NewButtonExtension() goldmark.Extender {
	return &ButtonExtension{}
}
