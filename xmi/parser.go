package xmi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/weft-lang/weft/metamodel"
	"github.com/weft-lang/weft/model"
)

const (
	xmiNS = "http://www.omg.org/XMI"
	xsiNS = "http://www.w3.org/2001/XMLSchema-instance"
)

// Parser deserializes exchange-format documents into model resources.
// References whose target lies outside the current resource become proxies;
// nothing is loaded eagerly.
type Parser struct {
	reg *metamodel.Registry
	set *model.ResourceSet
}

// NewParser creates a parser for the given registry. The resource set is
// only consulted for the registry of nested parses and may be nil.
func NewParser(reg *metamodel.Registry, set *model.ResourceSet) *Parser {
	return &Parser{reg: reg, set: set}
}

// Parse deserializes one document. Its signature matches model.ParseFunc so
// a resource set can load documents through it.
func Parse(set *model.ResourceSet, uri string, data []byte) (*model.Resource, error) {
	return NewParser(set.Registry(), set).Parse(uri, data)
}

// ParseFile reads and parses the file at path, registering nothing in the
// set; use ResourceSet.Load for cached loading.
func ParseFile(set *model.ResourceSet, path string) (*model.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ResourceNotFoundError{URI: path, Err: err}
	}
	return Parse(set, path, data)
}

// localFixup is a same-resource fragment reference that did not resolve at
// the point it was read. Fragments are first tried immediately; the ones
// that point forward in the document get a second pass once the whole
// object graph is known.
type localFixup struct {
	id      model.ID
	feature string
	loc     Location
}

type docParser struct {
	*Parser
	uri    string
	data   []byte
	dec    *xml.Decoder
	res    *model.Resource
	fixups []localFixup
}

// Parse deserializes the document into a fresh resource for the URI.
// Any structural error aborts the parse; the partial graph is discarded.
func (p *Parser) Parse(uri string, data []byte) (*model.Resource, error) {
	d := &docParser{
		Parser: p,
		uri:    uri,
		data:   data,
		dec:    xml.NewDecoder(bytes.NewReader(data)),
		res:    model.NewResource(uri, p.reg),
	}
	if err := d.parseDocument(); err != nil {
		return nil, err
	}
	return d.res, nil
}

func (d *docParser) parseDocument() error {
	sawRoot := false
	for {
		tok, err := d.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return d.syntaxError(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if sawRoot {
				return d.errf(ErrUnexpectedElement, "unexpected second top-level element <%s>", t.Name.Local)
			}
			sawRoot = true
			if t.Name.Space == xmiNS && t.Name.Local == "XMI" {
				if err := d.parseRootList(t); err != nil {
					return err
				}
			} else if _, err := d.parseObject(t, d.elementClass(t), true); err != nil {
				return err
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return d.errf(ErrMalformedDocument, "unexpected text outside of any element")
			}
		}
	}
	if !sawRoot {
		return d.errf(ErrEmptyDocument, "document contains no model content")
	}
	return d.applyFixups()
}

// parseRootList parses the children of an xmi:XMI wrapper, each of which is
// a root object.
func (d *docParser) parseRootList(start xml.StartElement) error {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return d.syntaxError(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := d.parseObject(t, d.elementClass(t), true); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return d.errf(ErrMalformedDocument, "unexpected text inside <xmi:XMI>")
			}
		}
	}
}

// elementClass maps a namespace-qualified element name to a class name.
func (d *docParser) elementClass(start xml.StartElement) string {
	return start.Name.Local
}

func (d *docParser) checkNamespace(start xml.StartElement) error {
	if start.Name.Space == "" || start.Name.Space == xmiNS {
		return nil
	}
	if _, err := d.reg.PackageByURI(start.Name.Space); err != nil {
		return d.errf(ErrUnknownNamespace, "unknown namespace %q for element <%s>",
			start.Name.Space, start.Name.Local)
	}
	return nil
}

// parseObject materializes one element as an object, consuming tokens up to
// and including the element's end tag.
func (d *docParser) parseObject(start xml.StartElement, class string, root bool) (model.ID, error) {
	if err := d.checkNamespace(start); err != nil {
		return "", err
	}
	desc, err := d.reg.Class(class)
	if err != nil {
		return "", d.errf(ErrUnknownClass, "unknown class %q for element <%s>", class, start.Name.Local)
	}
	if desc.Abstract {
		return "", d.errf(ErrAbstractClass, "cannot instantiate abstract class %q", class)
	}

	obj := model.NewObject(class)
	var id model.ID
	if root {
		id, err = d.res.Add(obj)
	} else {
		id, err = d.res.Register(obj)
	}
	if err != nil {
		return "", d.errf(ErrMalformedDocument, "%v", err)
	}

	for _, attr := range start.Attr {
		if skipAttr(attr) {
			continue
		}
		if err := d.parseAttr(id, class, attr); err != nil {
			return "", err
		}
	}
	if err := d.parseChildren(id, class); err != nil {
		return "", err
	}
	return id, nil
}

func skipAttr(attr xml.Attr) bool {
	switch {
	case attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns":
		return true
	case attr.Name.Space == xmiNS || attr.Name.Space == xsiNS:
		return true
	}
	return false
}

// parseAttr handles one XML attribute: primitive features get their value
// converted per the declared data type, reference features read a
// whitespace-separated list of fragments or hrefs.
func (d *docParser) parseAttr(id model.ID, class string, attr xml.Attr) error {
	feat, err := d.reg.Feature(class, attr.Name.Local)
	if err != nil {
		return d.errf(ErrUnknownFeature, "class %q has no feature %q", class, attr.Name.Local)
	}
	if feat.IsAttribute() {
		v, err := d.convertPrimitive(class, feat, attr.Value)
		if err != nil {
			return err
		}
		if feat.Multiplicity.Many() {
			v = model.List(v)
		}
		return d.setFeature(id, class, feat, v)
	}

	if feat.Containment {
		return d.errf(ErrNotContainment,
			"containment reference %s.%s cannot be written as a fragment attribute", class, feat.Name)
	}
	tokens := strings.Fields(attr.Value)
	if len(tokens) == 0 {
		return d.errf(ErrInvalidHref, "empty reference value for %s.%s", class, feat.Name)
	}
	if !feat.Multiplicity.Many() {
		if len(tokens) > 1 {
			return d.errf(ErrMultiplicity, "feature %s.%s admits a single value, got %d",
				class, feat.Name, len(tokens))
		}
		v, err := d.refValue(id, feat, tokens[0])
		if err != nil {
			return err
		}
		return d.setFeature(id, class, feat, v)
	}
	elems := make([]model.Value, 0, len(tokens))
	for _, tok := range tokens {
		v, err := d.refValue(id, feat, tok)
		if err != nil {
			return err
		}
		elems = append(elems, v)
	}
	return d.setFeature(id, class, feat, model.List(elems...))
}

func (d *docParser) parseChildren(id model.ID, class string) error {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return d.syntaxError(err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return d.errf(ErrMalformedDocument, "unexpected text content in <%s> element", class)
			}
		case xml.StartElement:
			if err := d.parseChild(id, class, t); err != nil {
				return err
			}
		}
	}
}

// parseChild handles one child element: attribute features in element form
// carry text content, reference features are either nested containment
// objects or carry an href.
func (d *docParser) parseChild(id model.ID, class string, start xml.StartElement) error {
	feat, err := d.reg.Feature(class, start.Name.Local)
	if err != nil {
		return d.errf(ErrUnknownFeature, "class %q has no feature %q", class, start.Name.Local)
	}
	if feat.IsAttribute() {
		text, err := d.textContent(start.Name.Local)
		if err != nil {
			return err
		}
		v, err := d.convertPrimitive(class, feat, text)
		if err != nil {
			return err
		}
		return d.appendFeature(id, class, feat, v)
	}

	if href, ok := findAttr(start, "href"); ok {
		v, err := d.refValue(id, feat, href)
		if err != nil {
			return err
		}
		if err := d.dec.Skip(); err != nil {
			return d.syntaxError(err)
		}
		return d.appendFeature(id, class, feat, v)
	}

	if !feat.Containment {
		return d.errf(ErrNotContainment,
			"cross-reference %s.%s must carry an href, not a nested object", class, feat.Name)
	}
	childClass := feat.Target
	if xt, ok := findAttrNS(start, xsiNS, "type"); ok {
		childClass = localName(xt)
	}
	childID, err := d.parseObject(start, childClass, false)
	if err != nil {
		return err
	}
	return d.appendFeature(id, class, feat, model.Ref(childID))
}

// refValue interprets one href or fragment token. Same-resource fragments
// resolve immediately when possible; forward references are retried after
// the document completes. Foreign URIs become proxies without loading.
func (d *docParser) refValue(id model.ID, feat metamodel.Feature, token string) (model.Value, error) {
	uri, frag := token, ""
	if i := strings.Index(token, "#"); i >= 0 {
		uri, frag = token[:i], token[i+1:]
	} else {
		// bare fragment path, the XMI attribute shorthand
		uri, frag = "", token
	}
	if frag == "" {
		return model.Unset, d.errf(ErrInvalidHref, "reference %q has no fragment", token)
	}
	if uri == "" || uri == d.uri {
		if target, ok := d.res.ResolveFragment(frag); ok {
			return model.Ref(target), nil
		}
		line, col := lineAt(d.data, d.dec.InputOffset())
		d.fixups = append(d.fixups, localFixup{
			id:      id,
			feature: feat.Name,
			loc:     Location{File: d.uri, Line: line, Column: col},
		})
		return model.ProxyValue(model.Proxy{Fragment: frag}), nil
	}
	return model.ProxyValue(model.Proxy{
		URI:      model.ResolveURI(d.uri, uri),
		Fragment: frag,
	}), nil
}

// applyFixups resolves same-resource fragments that pointed forward in the
// document. A fragment still unresolvable against the complete graph is a
// structural error.
func (d *docParser) applyFixups() error {
	for _, fix := range d.fixups {
		v := d.res.Get(fix.id, fix.feature)
		resolved, ok := d.resolveLocalProxies(v)
		if !ok {
			return &ParseError{
				Code:     ErrInvalidFragment,
				Message:  fmt.Sprintf("unresolvable fragment in feature %q", fix.feature),
				Location: fix.loc,
			}
		}
		if err := d.res.Set(fix.id, fix.feature, resolved); err != nil {
			return d.errf(ErrInvalidFragment, "%v", err)
		}
	}
	return nil
}

func (d *docParser) resolveLocalProxies(v model.Value) (model.Value, bool) {
	if p, isProxy := v.AsProxy(); isProxy && p.URI == "" {
		target, ok := d.res.ResolveFragment(p.Fragment)
		if !ok {
			return model.Unset, false
		}
		return model.Ref(target), true
	}
	if elems, isList := v.AsList(); isList {
		out := make([]model.Value, len(elems))
		for i, e := range elems {
			r, ok := d.resolveLocalProxies(e)
			if !ok {
				return model.Unset, false
			}
			out[i] = r
		}
		return model.List(out...), true
	}
	return v, true
}

// setFeature writes a first occurrence; a repeat of a single-valued feature
// is a multiplicity violation.
func (d *docParser) setFeature(id model.ID, class string, feat metamodel.Feature, v model.Value) error {
	if !d.res.Get(id, feat.Name).IsUnset() {
		return d.errf(ErrMultiplicity, "feature %s.%s set more than once", class, feat.Name)
	}
	if err := d.res.Set(id, feat.Name, v); err != nil {
		return d.errf(ErrMalformedDocument, "%v", err)
	}
	return nil
}

// appendFeature accumulates repeated child elements into the feature value,
// checking the declared upper bound as it grows.
func (d *docParser) appendFeature(id model.ID, class string, feat metamodel.Feature, v model.Value) error {
	cur := d.res.Get(id, feat.Name)
	if !feat.Multiplicity.Many() {
		if !cur.IsUnset() {
			return d.errf(ErrMultiplicity, "feature %s.%s admits a single value", class, feat.Name)
		}
		if err := d.res.Set(id, feat.Name, v); err != nil {
			return d.errf(ErrMalformedDocument, "%v", err)
		}
		return nil
	}
	next := cur.Appended(v)
	upper := feat.Multiplicity.Upper
	if upper != metamodel.Unbounded && next.Len() > upper {
		return d.errf(ErrMultiplicity, "feature %s.%s exceeds its upper bound of %d",
			class, feat.Name, upper)
	}
	if err := d.res.Set(id, feat.Name, next); err != nil {
		return d.errf(ErrMalformedDocument, "%v", err)
	}
	return nil
}

// convertPrimitive converts attribute text per the declared data type,
// which is either a primitive or the name of a defined enumeration.
func (d *docParser) convertPrimitive(class string, feat metamodel.Feature, text string) (model.Value, error) {
	switch feat.Type {
	case metamodel.TypeString:
		return model.String(text), nil
	case metamodel.TypeInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return model.Unset, d.errf(ErrInvalidAttribute,
				"feature %s.%s: %q is not an integer", class, feat.Name, text)
		}
		return model.Int(i), nil
	case metamodel.TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return model.Unset, d.errf(ErrInvalidAttribute,
				"feature %s.%s: %q is not a number", class, feat.Name, text)
		}
		return model.Float(f), nil
	case metamodel.TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return model.Unset, d.errf(ErrInvalidAttribute,
				"feature %s.%s: %q is not a boolean", class, feat.Name, text)
		}
		return model.Bool(b), nil
	}
	enum, err := d.reg.Enum(string(feat.Type))
	if err != nil {
		return model.Unset, d.errf(ErrInvalidAttribute,
			"feature %s.%s has undefined type %q", class, feat.Name, feat.Type)
	}
	if _, ok := enum.Literal(text); !ok {
		return model.Unset, d.errf(ErrInvalidAttribute,
			"feature %s.%s: %q is not a literal of enum %s", class, feat.Name, text, enum.Name)
	}
	return model.EnumValue(text), nil
}

// textContent consumes the element's character data up to its end tag.
func (d *docParser) textContent(element string) (string, error) {
	var b strings.Builder
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return "", d.syntaxError(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		case xml.StartElement:
			return "", d.errf(ErrMalformedDocument,
				"unexpected element <%s> inside attribute element <%s>", t.Name.Local, element)
		}
	}
}

func findAttr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

func findAttrNS(start xml.StartElement, space, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name && a.Name.Space == space {
			return a.Value, true
		}
	}
	return "", false
}

// localName strips a namespace prefix from a qualified name like
// "org:Manager".
func localName(qualified string) string {
	if i := strings.LastIndex(qualified, ":"); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

func (d *docParser) errf(code, format string, args ...interface{}) *ParseError {
	line, col := lineAt(d.data, d.dec.InputOffset())
	return &ParseError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: Location{File: d.uri, Line: line, Column: col},
	}
}

func (d *docParser) syntaxError(err error) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{
			Code:     ErrMalformedDocument,
			Message:  syn.Msg,
			Location: Location{File: d.uri, Line: syn.Line},
		}
	}
	if err == io.EOF {
		return d.errf(ErrMalformedDocument, "unexpected end of document")
	}
	return d.errf(ErrMalformedDocument, "%v", err)
}
