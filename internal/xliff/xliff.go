// Package xliff is the document model for XLIFF 1.2 / SDLXLIFF interchange
// files. It parses a file into an addressable tree, locates trans-unit
// elements under either the namespaced XLIFF 1.2 vocabulary or a bare
// unnamespaced fallback, and writes translated text into target slots while
// leaving every untouched node exactly as it was parsed.
package xliff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// NamespaceXLIFF12 is the primary dialect namespace.
const NamespaceXLIFF12 = "urn:oasis:names:tc:xliff:document:1.2"

// ErrMalformed reports a document that could not be parsed or has no root.
var ErrMalformed = errors.New("xliff: malformed document")

// Dialect identifies which element vocabulary produced the unit set.
type Dialect int

const (
	// DialectNone means no trans-unit elements were found at all.
	DialectNone Dialect = iota
	// DialectXLIFF12 is the namespaced XLIFF 1.2 vocabulary (SDLXLIFF uses it).
	DialectXLIFF12
	// DialectPlain is the unnamespaced trans-unit fallback vocabulary.
	DialectPlain
)

func (d Dialect) String() string {
	switch d {
	case DialectXLIFF12:
		return "xliff-1.2"
	case DialectPlain:
		return "plain"
	default:
		return "none"
	}
}

// Document wraps a parsed interchange file.
type Document struct {
	tree *etree.Document
}

// Parse reads and parses the interchange file at path.
func Parse(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an interchange document held in memory.
func ParseBytes(data []byte) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.PreserveCData = true
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return &Document{tree: tree}, nil
}

// Unit is one trans-unit element: an id, a read-only source slot and an
// optional target slot.
type Unit struct {
	ID string

	elem   *etree.Element
	source *etree.Element
	target *etree.Element
}

// SourceText returns the concatenated text of all descendant text nodes of
// the source slot. Inline markup is dropped; the fragments around it are
// joined as-is.
func (u *Unit) SourceText() string {
	return textContent(u.source)
}

// TargetText returns the concatenated descendant text of the target slot,
// or "" when the unit has no target element.
func (u *Unit) TargetText() string {
	if u.target == nil {
		return ""
	}
	return textContent(u.target)
}

// HasTarget reports whether the unit currently owns a target element.
func (u *Unit) HasTarget() bool {
	return u.target != nil
}

// SetTarget writes text into the unit's target slot. A missing target
// element is created directly after the source element, in the source's
// namespace prefix. An existing target is overwritten: its children are
// discarded and replaced by the new text. The source slot is never touched.
func (u *Unit) SetTarget(text string) {
	if u.target == nil {
		tag := "target"
		if u.source.Space != "" {
			tag = u.source.Space + ":target"
		}
		t := etree.NewElement(tag)
		idx := len(u.elem.Child)
		for i, tok := range u.elem.Child {
			if el, ok := tok.(*etree.Element); ok && el == u.source {
				idx = i + 1
				break
			}
		}
		u.elem.InsertChildAt(idx, t)
		u.target = t
	}
	u.target.Child = nil
	u.target.SetText(text)
}

// FindUnits returns all recognized trans-unit elements in document order,
// together with the dialect that produced them. The primary namespaced
// dialect is attempted first; the unnamespaced fallback runs only when the
// primary yields zero units, so the two vocabularies are never mixed.
func (d *Document) FindUnits() ([]*Unit, Dialect) {
	var all []*etree.Element
	collect(d.tree.Root(), "trans-unit", &all)

	dialect, elems := resolveDialect(all)
	if dialect == DialectNone {
		return nil, DialectNone
	}

	ns := ""
	if dialect == DialectXLIFF12 {
		ns = NamespaceXLIFF12
	}

	units := make([]*Unit, 0, len(elems))
	for _, el := range elems {
		src := childInNamespace(el, "source", ns)
		if src == nil {
			continue
		}
		units = append(units, &Unit{
			ID:     el.SelectAttrValue("id", ""),
			elem:   el,
			source: src,
			target: childInNamespace(el, "target", ns),
		})
	}
	return units, dialect
}

// resolveDialect partitions candidate trans-unit elements by resolved
// namespace and picks the dialect: XLIFF 1.2 when any unit lives in the
// XLIFF namespace, otherwise the unnamespaced fallback when any bare unit
// exists. Pure over its input; both paths are independently testable.
func resolveDialect(candidates []*etree.Element) (Dialect, []*etree.Element) {
	var primary, plain []*etree.Element
	for _, el := range candidates {
		switch namespaceURI(el) {
		case NamespaceXLIFF12:
			primary = append(primary, el)
		case "":
			plain = append(plain, el)
		}
	}
	if len(primary) > 0 {
		return DialectXLIFF12, primary
	}
	if len(plain) > 0 {
		return DialectPlain, plain
	}
	return DialectNone, nil
}

// Serialize writes the document to path with its XML declaration and UTF-8
// encoding intact. The write is atomic-intent: a temp file in the target
// directory followed by a rename.
func (d *Document) Serialize(path string) error {
	var buf bytes.Buffer
	if err := d.WriteTo(&buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}

// WriteTo serializes the document to w, prepending an XML declaration when
// the parsed input carried none.
func (d *Document) WriteTo(w io.Writer) error {
	if !d.hasDeclaration() {
		d.tree.InsertChildAt(0, &etree.ProcInst{
			Target: "xml",
			Inst:   `version="1.0" encoding="utf-8"`,
		})
	}
	if _, err := d.tree.WriteTo(w); err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	return nil
}

func (d *Document) hasDeclaration() bool {
	for _, tok := range d.tree.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return true
		}
	}
	return false
}

// collect appends to out every descendant element of el (el included) whose
// local tag matches tag, in document order.
func collect(el *etree.Element, tag string, out *[]*etree.Element) {
	if el == nil {
		return
	}
	if el.Tag == tag {
		*out = append(*out, el)
	}
	for _, child := range el.ChildElements() {
		collect(child, tag, out)
	}
}

// namespaceURI resolves the namespace URI governing el by walking xmlns
// declarations up the ancestor chain. etree keeps prefixes, not URIs, so
// the resolution has to be done by hand.
func namespaceURI(el *etree.Element) string {
	attr := "xmlns"
	if el.Space != "" {
		attr = "xmlns:" + el.Space
	}
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space == "" && a.Key == attr && attr == "xmlns" {
				return a.Value
			}
			if a.Space == "xmlns" && "xmlns:"+a.Key == attr {
				return a.Value
			}
		}
	}
	return ""
}

// childInNamespace returns the first direct child of el with the given local
// tag whose resolved namespace matches ns, or nil.
func childInNamespace(el *etree.Element, tag, ns string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag && namespaceURI(child) == ns {
			return child
		}
	}
	return nil
}

// textContent concatenates all descendant character data of el.
func textContent(el *etree.Element) string {
	var sb strings.Builder
	appendText(el, &sb)
	return sb.String()
}

func appendText(el *etree.Element, sb *strings.Builder) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			appendText(t, sb)
		}
	}
}
