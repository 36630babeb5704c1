package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	wmlNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	xmlNamespace = "http://www.w3.org/XML/1998/namespace"
)

type xmlNode struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*xmlNode
	Text     string
	IsText   bool
}

// xmlPart is one parsed XML part of a package. Everything up to and
// including the root start tag is kept verbatim, so the declarations and
// mc:Ignorable on the root are written back unchanged.
type xmlPart struct {
	prolog  string
	rootEnd string
	root    *xmlNode
}

func parsePart(content []byte) (*xmlPart, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	part := &xmlPart{}
	var stack []*xmlNode
	for {
		offset := decoder.InputOffset()
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			node := &xmlNode{Name: t.Name, Attr: t.Attr}
			if part.root == nil {
				part.root = node
				startTag := string(content[offset:decoder.InputOffset()])
				part.prolog = string(content[:offset]) + startTag
				part.rootEnd = "</" + rawTagName(startTag) + ">"
			} else if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 || len(t) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &xmlNode{IsText: true, Text: string(t)})
		}
	}
	if part.root == nil {
		return nil, errors.New("xml part has no root element")
	}
	if strings.HasSuffix(part.prolog, "/>") {
		return nil, errors.New("xml part has an empty root element")
	}
	return part, nil
}

func rawTagName(startTag string) string {
	name := strings.TrimPrefix(startTag, "<")
	if idx := strings.IndexAny(name, " \t\r\n/>"); idx != -1 {
		name = name[:idx]
	}
	return name
}

// bytes serializes the part. Element and attribute names are written with
// the prefixes the root declares; the tree is rewritten in place, so a part
// is serialized once.
func (p *xmlPart) bytes() ([]byte, error) {
	prefixes := map[string]string{xmlNamespace: "xml"}
	for _, attr := range p.root.Attr {
		switch {
		case attr.Name.Space == "xmlns":
			prefixes[attr.Value] = attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			prefixes[attr.Value] = ""
		}
	}

	var buf bytes.Buffer
	buf.WriteString(p.prolog)
	encoder := xml.NewEncoder(&buf)
	for _, child := range p.root.Children {
		applyPrefixes(child, prefixes)
		if err := encodeXMLNode(encoder, child); err != nil {
			return nil, err
		}
	}
	if err := encoder.Flush(); err != nil {
		return nil, err
	}
	buf.WriteString(p.rootEnd)
	return buf.Bytes(), nil
}

// applyPrefixes turns namespace URIs into literal "prefix:local" names so the
// encoder does not invent its own prefixes. Namespace declarations made
// below the root are written back as plain xmlns attributes.
func applyPrefixes(node *xmlNode, prefixes map[string]string) {
	if node.IsText {
		return
	}
	node.Name = prefixedName(node.Name, prefixes)
	for i, attr := range node.Attr {
		if attr.Name.Space == "xmlns" {
			attr.Name = xml.Name{Local: "xmlns:" + attr.Name.Local}
		} else if attr.Name.Space != "" {
			attr.Name = prefixedName(attr.Name, prefixes)
		}
		node.Attr[i] = attr
	}
	for _, child := range node.Children {
		applyPrefixes(child, prefixes)
	}
}

func prefixedName(name xml.Name, prefixes map[string]string) xml.Name {
	if prefix, ok := prefixes[name.Space]; ok && prefix != "" {
		return xml.Name{Local: prefix + ":" + name.Local}
	}
	return name
}

func encodeXMLNode(encoder *xml.Encoder, node *xmlNode) error {
	if node.IsText {
		return encoder.EncodeToken(xml.CharData(node.Text))
	}
	start := xml.StartElement{Name: node.Name, Attr: node.Attr}
	if err := encoder.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := encodeXMLNode(encoder, child); err != nil {
			return err
		}
	}
	return encoder.EncodeToken(start.End())
}

// walk visits node and all of its descendants depth first.
func walk(node *xmlNode, visit func(*xmlNode)) {
	if node == nil {
		return
	}
	visit(node)
	for _, child := range node.Children {
		walk(child, visit)
	}
}

func isElement(node *xmlNode, local string) bool {
	if node == nil || node.IsText || node.Name.Local != local {
		return false
	}
	return node.Name.Space == "" || node.Name.Space == wmlNamespace
}

func wml(local string) xml.Name {
	return xml.Name{Space: wmlNamespace, Local: local}
}
