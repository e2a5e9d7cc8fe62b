package xmi

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weft-lang/weft/metamodel"
	"github.com/weft-lang/weft/model"
)

// orgRegistry is the metamodel shared by the codec tests: an "org" package
// with teams, people, and departments.
func orgRegistry(t *testing.T) *metamodel.Registry {
	t.Helper()
	r := metamodel.NewRegistry()
	require.NoError(t, r.DefinePackage(metamodel.Package{
		Name: "org", URI: "http://example.com/org", Prefix: "org",
	}))
	require.NoError(t, r.DefineEnum(metamodel.Enum{Name: "Grade", Literals: []metamodel.EnumLiteral{
		{Name: "junior", Value: 0},
		{Name: "senior", Value: 1},
	}}))
	require.NoError(t, r.DefineClass(metamodel.Class{Name: "Person", Package: "org", Features: []metamodel.Feature{
		{Name: "name", Kind: metamodel.KindAttribute, Type: metamodel.TypeString},
		{Name: "age", Kind: metamodel.KindAttribute, Type: metamodel.TypeInt},
		{Name: "rating", Kind: metamodel.KindAttribute, Type: metamodel.TypeFloat},
		{Name: "active", Kind: metamodel.KindAttribute, Type: metamodel.TypeBool},
		{Name: "grade", Kind: metamodel.KindAttribute, Type: "Grade"},
		{Name: "nicknames", Kind: metamodel.KindAttribute, Type: metamodel.TypeString,
			Multiplicity: metamodel.Multiplicity{Lower: 0, Upper: metamodel.Unbounded}},
	}}))
	require.NoError(t, r.DefineClass(metamodel.Class{Name: "Manager", Package: "org",
		SuperTypes: []string{"Person"},
		Features: []metamodel.Feature{
			{Name: "budget", Kind: metamodel.KindAttribute, Type: metamodel.TypeFloat},
		}}))
	require.NoError(t, r.DefineClass(metamodel.Class{Name: "Team", Package: "org", Features: []metamodel.Feature{
		{Name: "name", Kind: metamodel.KindAttribute, Type: metamodel.TypeString},
		{Name: "members", Kind: metamodel.KindReference, Target: "Person", Containment: true,
			Multiplicity: metamodel.Multiplicity{Lower: 0, Upper: metamodel.Unbounded}},
		{Name: "leader", Kind: metamodel.KindReference, Target: "Person"},
		{Name: "subteams", Kind: metamodel.KindReference, Target: "Team", Containment: true,
			Multiplicity: metamodel.Multiplicity{Lower: 0, Upper: metamodel.Unbounded}},
		{Name: "pair", Kind: metamodel.KindReference, Target: "Person", Containment: true,
			Multiplicity: metamodel.Multiplicity{Lower: 0, Upper: 2}},
	}}))
	require.NoError(t, r.DefineClass(metamodel.Class{Name: "Department", Package: "org", Features: []metamodel.Feature{
		{Name: "name", Kind: metamodel.KindAttribute, Type: metamodel.TypeString},
		{Name: "mainDepartment", Kind: metamodel.KindReference, Target: "Department"},
		{Name: "teams", Kind: metamodel.KindReference, Target: "Team", Containment: true,
			Multiplicity: metamodel.Multiplicity{Lower: 0, Upper: metamodel.Unbounded}},
	}}))
	require.NoError(t, r.DefineClass(metamodel.Class{Name: "Shape", Package: "org", Abstract: true}))
	return r
}

// mapLoader serves documents from memory.
type mapLoader map[string]string

func (l mapLoader) Load(_ context.Context, uri string) ([]byte, error) {
	doc, ok := l[uri]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(doc), nil
}

// newSet wires a resource set over in-memory documents with this codec
// installed as the parser.
func newSet(t *testing.T, docs map[string]string) *model.ResourceSet {
	t.Helper()
	return model.NewResourceSet(orgRegistry(t),
		model.WithLoader(mapLoader(docs)),
		model.WithParseFunc(Parse))
}

func mustParse(t *testing.T, uri, doc string) *model.Resource {
	t.Helper()
	res, err := Parse(newSet(t, nil), uri, []byte(doc))
	require.NoError(t, err)
	return res
}
