package xmi

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/weft-lang/weft/metamodel"
	"github.com/weft-lang/weft/model"
)

// Serializer writes a resource as an exchange-format document. Output is
// deterministic: every iteration goes through the resource's stored
// insertion orders, never a map, so repeated calls are byte-identical.
type Serializer struct {
	res *model.Resource
	set *model.ResourceSet
	reg *metamodel.Registry
}

// NewSerializer creates a serializer. The set locates the owning resource
// of cross-resource references held as plain identifiers; it may be nil
// when all foreign references are proxies.
func NewSerializer(res *model.Resource, set *model.ResourceSet) *Serializer {
	return &Serializer{res: res, set: set, reg: res.Registry()}
}

// Serialize renders the resource.
func Serialize(res *model.Resource, set *model.ResourceSet) (string, error) {
	return NewSerializer(res, set).Serialize()
}

// Serialize produces the document text. Parsing it back yields an
// observably equal resource: same classes, same feature order, same
// values, same containment shape.
func (s *Serializer) Serialize() (string, error) {
	var b strings.Builder
	b.WriteString(xml.Header)

	roots := s.res.RootObjects()
	if len(roots) == 0 {
		b.WriteString("<xmi:XMI xmi:version=\"2.0\" xmlns:xmi=\"" + xmiNS + "\"/>\n")
		return b.String(), nil
	}

	nsDecls, err := s.namespaceDecls()
	if err != nil {
		return "", err
	}

	if len(roots) == 1 {
		if err := s.emitObject(&b, roots[0], s.rootTag(roots[0]), nsDecls, 0); err != nil {
			return "", err
		}
		return b.String(), nil
	}

	b.WriteString("<xmi:XMI xmi:version=\"2.0\" xmlns:xmi=\"" + xmiNS + "\"")
	for _, decl := range nsDecls[1:] { // skip the root-form xmi decl, already written
		b.WriteString(decl)
	}
	b.WriteString(">\n")
	for _, root := range roots {
		if err := s.emitObject(&b, root, s.rootTag(root), nil, 1); err != nil {
			return "", err
		}
	}
	b.WriteString("</xmi:XMI>\n")
	return b.String(), nil
}

// namespaceDecls builds the attribute text declaring the xmi and xsi
// namespaces plus one declaration per package used by the resource, in
// first-use order over the object insertion order.
func (s *Serializer) namespaceDecls() ([]string, error) {
	decls := []string{
		" xmi:version=\"2.0\" xmlns:xmi=\"" + xmiNS + "\"",
		" xmlns:xsi=\"" + xsiNS + "\"",
	}
	seen := make(map[string]bool)
	for _, id := range s.res.AllObjects() {
		class, _ := s.res.ClassOf(id)
		desc, err := s.reg.Class(class)
		if err != nil {
			return nil, err
		}
		if desc.Package == "" || seen[desc.Package] {
			continue
		}
		seen[desc.Package] = true
		pkg, err := s.reg.Package(desc.Package)
		if err != nil {
			return nil, err
		}
		decls = append(decls, " xmlns:"+s.pkgPrefix(pkg)+"=\""+escape(pkg.URI)+"\"")
	}
	return decls, nil
}

func (s *Serializer) pkgPrefix(pkg metamodel.Package) string {
	if pkg.Prefix != "" {
		return pkg.Prefix
	}
	return pkg.Name
}

// rootTag is the namespace-qualified element name for a root object.
func (s *Serializer) rootTag(id model.ID) string {
	class, _ := s.res.ClassOf(id)
	desc, err := s.reg.Class(class)
	if err != nil || desc.Package == "" {
		return class
	}
	pkg, err := s.reg.Package(desc.Package)
	if err != nil {
		return class
	}
	return s.pkgPrefix(pkg) + ":" + class
}

// emitObject writes one object element. Scalar primitive features at the
// head of the stored feature order become XML attributes; every feature
// from the first element-valued one onward is written in element form, so
// that re-parsing reproduces the stored order exactly.
func (s *Serializer) emitObject(b *strings.Builder, id model.ID, tag string, extra []string, indent int) error {
	order := s.res.FeatureOrder(id)
	class, _ := s.res.ClassOf(id)

	split := len(order)
	for i, name := range order {
		if !s.attrForm(s.res.Get(id, name)) {
			split = i
			break
		}
	}

	pad := strings.Repeat("  ", indent)
	b.WriteString(pad)
	b.WriteString("<")
	b.WriteString(tag)
	for _, e := range extra {
		b.WriteString(e)
	}
	for _, name := range order[:split] {
		b.WriteString(" ")
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escape(s.scalarText(s.res.Get(id, name))))
		b.WriteString("\"")
	}
	if split == len(order) {
		b.WriteString("/>\n")
		return nil
	}
	b.WriteString(">\n")
	for _, name := range order[split:] {
		if err := s.emitFeatureElements(b, id, class, name, indent+1); err != nil {
			return err
		}
	}
	b.WriteString(pad)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteString(">\n")
	return nil
}

// attrForm reports whether the value can be carried by an XML attribute.
func (s *Serializer) attrForm(v model.Value) bool {
	switch v.Kind() {
	case model.KindString, model.KindInt, model.KindFloat, model.KindBool, model.KindEnum:
		return true
	}
	return false
}

// emitFeatureElements writes every element of one feature, in stored order.
func (s *Serializer) emitFeatureElements(b *strings.Builder, id model.ID, class, feature string, indent int) error {
	feat, err := s.reg.Feature(class, feature)
	if err != nil {
		return err
	}
	v := s.res.Get(id, feature)
	elems := []model.Value{v}
	if list, ok := v.AsList(); ok {
		elems = list
	}
	pad := strings.Repeat("  ", indent)
	for _, e := range elems {
		switch {
		case feat.IsAttribute():
			b.WriteString(pad)
			b.WriteString("<")
			b.WriteString(feature)
			b.WriteString(">")
			var esc strings.Builder
			xml.EscapeText(&esc, []byte(s.scalarText(e)))
			b.WriteString(esc.String())
			b.WriteString("</")
			b.WriteString(feature)
			b.WriteString(">\n")
		case feat.Containment:
			target, ok := e.AsRef()
			if !ok {
				return fmt.Errorf("containment feature %s.%s holds non-ref value %s", class, feature, e)
			}
			var extra []string
			if childClass, _ := s.res.ClassOf(target); childClass != feat.Target {
				extra = append(extra, " xsi:type=\""+escape(s.qualifiedName(childClass))+"\"")
			}
			if err := s.emitObject(b, target, feature, extra, indent); err != nil {
				return err
			}
		default:
			href, err := s.href(e)
			if err != nil {
				return fmt.Errorf("feature %s.%s: %w", class, feature, err)
			}
			b.WriteString(pad)
			b.WriteString("<")
			b.WriteString(feature)
			b.WriteString(" href=\"")
			b.WriteString(escape(href))
			b.WriteString("\"/>\n")
		}
	}
	return nil
}

// href encodes a cross-reference. Same-resource targets get their
// containment path so the target's content is never duplicated; targets in
// other resources get uri#fragment. Unresolved proxies round-trip as-is.
func (s *Serializer) href(v model.Value) (string, error) {
	if p, ok := v.AsProxy(); ok {
		return model.RelativizeURI(s.res.URI(), p.URI) + "#" + p.Fragment, nil
	}
	target, ok := v.AsRef()
	if !ok {
		return "", fmt.Errorf("cross-reference holds non-ref value %s", v)
	}
	if s.res.Contains(target) {
		frag, ok := s.res.FragmentOf(target)
		if !ok {
			return "", fmt.Errorf("object %s is reachable from no root", target)
		}
		return "#" + frag, nil
	}
	if s.set != nil {
		for _, uri := range s.set.URIs() {
			other, ok := s.set.Resource(uri)
			if !ok || other == s.res || !other.Contains(target) {
				continue
			}
			frag, ok := other.FragmentOf(target)
			if !ok {
				continue
			}
			return model.RelativizeURI(s.res.URI(), uri) + "#" + frag, nil
		}
	}
	return "", fmt.Errorf("dangling reference to %s", target)
}

// qualifiedName renders a class name with its package prefix for xsi:type.
func (s *Serializer) qualifiedName(class string) string {
	desc, err := s.reg.Class(class)
	if err != nil || desc.Package == "" {
		return class
	}
	pkg, err := s.reg.Package(desc.Package)
	if err != nil {
		return class
	}
	return s.pkgPrefix(pkg) + ":" + class
}

// scalarText renders a scalar value as document text.
func (s *Serializer) scalarText(v model.Value) string {
	switch v.Kind() {
	case model.KindString:
		str, _ := v.AsString()
		return str
	case model.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case model.KindFloat:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case model.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case model.KindEnum:
		lit, _ := v.AsEnum()
		return lit
	}
	return ""
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
