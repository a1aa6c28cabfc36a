// Package gendoc converts the service catalogue's XML doc comments
// into plain text suitable for a Go doc comment, grounded directly on
// the original implementation's event-driven XML walk (a stack of open
// elements, each accumulating its own text, collapsed into its parent
// on close).
package gendoc

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"
)

const wrapColumn = 77

type docSection int

const (
	sectionNone docSection = iota
	sectionParameters
	sectionReturns
	sectionRemarks
)

func (s docSection) header() string {
	switch s {
	case sectionParameters:
		return "# Parameters\n"
	case sectionReturns:
		return "# Returns\n"
	case sectionRemarks:
		return "# Remarks\n"
	default:
		return ""
	}
}

// node mirrors the original's DocType enum: each open XML element
// accumulates its own text until closed, at which point its rendered
// form is appended to its parent.
type node struct {
	kind string // element name, or "" for the implicit root / a section marker
	text strings.Builder
	attr map[string]string
}

func (n *node) render() string {
	switch n.kind {
	case "summary", "doc", "returns", "remarks", "math", "section":
		return n.text.String()
	case "a":
		return fmt.Sprintf("[%s](%s)", n.text.String(), n.attr["href"])
	case "param":
		return fmt.Sprintf(" - `%s`: %s", n.attr["name"], n.text.String())
	case "paramref":
		return fmt.Sprintf("`%s`", n.attr["name"])
	case "c":
		return fmt.Sprintf("`%s`", n.text.String())
	case "see":
		return fmt.Sprintf("`%s`", strings.TrimPrefix(n.attr["cref"], "M:"))
	default:
		return n.text.String()
	}
}

type context struct {
	stack   []*node
	section docSection
}

func (c *context) pushSectionMaybe(s docSection) {
	if s == c.section {
		return
	}
	c.section = s
	sec := &node{kind: "section"}
	sec.text.WriteString(s.header())
	c.stack = append(c.stack, sec)
}

func (c *context) openElement(name string, attrs map[string]string) {
	switch name {
	case "param":
		c.pushSectionMaybe(sectionParameters)
	case "returns":
		c.pushSectionMaybe(sectionReturns)
	case "remarks":
		c.pushSectionMaybe(sectionRemarks)
	}
	c.stack = append(c.stack, &node{kind: name, attr: attrs})
}

// closeElement pops the top of the stack, folding its rendered text
// into its new parent, then consumes any now-exposed section markers
// the same way. Returns the root's rendered text once the stack
// empties.
func (c *context) closeElement() (string, bool) {
	n := len(c.stack)
	end := c.stack[n-1]
	c.stack = c.stack[:n-1]

	if len(c.stack) == 0 {
		return end.render(), true
	}
	parent := c.stack[len(c.stack)-1]
	parent.text.WriteString(end.render())

	for len(c.stack) > 0 && c.stack[len(c.stack)-1].kind == "section" {
		sec := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		if len(c.stack) == 0 {
			return sec.render(), true
		}
		c.stack[len(c.stack)-1].text.WriteString(sec.render())
	}
	return "", false
}

func (c *context) writeChars(s string) {
	if len(c.stack) == 0 {
		return
	}
	c.stack[len(c.stack)-1].text.WriteString(s)
}

// Parse converts an XML doc-comment fragment (as the catalogue embeds
// it, e.g. "<doc><summary>...</summary></doc>") into plain, word-
// wrapped text. An empty or unparsable fragment yields "".
func Parse(rawXML string) string {
	if strings.TrimSpace(rawXML) == "" {
		return ""
	}
	dec := xml.NewDecoder(strings.NewReader(rawXML))
	ctx := &context{}

	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make(map[string]string, len(t.Attr))
			for _, a := range t.Attr {
				attrs[a.Name.Local] = a.Value
			}
			ctx.openElement(t.Name.Local, attrs)
		case xml.CharData:
			ctx.writeChars(string(t))
		case xml.EndElement:
			if text, done := ctx.closeElement(); done {
				return wordwrap.WrapString(strings.TrimSpace(text), wrapColumn)
			}
		}
	}
}
