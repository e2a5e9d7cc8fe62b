package xmi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-lang/weft/model"
)

// buildTeamResource assembles the Engineering team through the repository
// API: Alice and Bob contained as members, Alice cross-referenced as leader.
func buildTeamResource(t *testing.T, set *model.ResourceSet) (*model.Resource, model.ID) {
	t.Helper()
	res := model.NewResource("team.xmi", set.Registry())

	team, err := res.Add(model.NewObject("Team"))
	require.NoError(t, err)
	alice, err := res.Register(model.NewObject("Person"))
	require.NoError(t, err)
	bob, err := res.Register(model.NewObject("Person"))
	require.NoError(t, err)

	require.NoError(t, res.Set(team, "name", model.String("Engineering")))
	require.NoError(t, res.Set(alice, "name", model.String("Alice")))
	require.NoError(t, res.Set(bob, "name", model.String("Bob")))
	require.NoError(t, res.Set(team, "members", model.List(model.Ref(alice), model.Ref(bob))))
	require.NoError(t, res.Set(team, "leader", model.Ref(alice)))
	return res, team
}

func TestSerializeLeaderAsContainmentPath(t *testing.T) {
	set := newSet(t, nil)
	res, _ := buildTeamResource(t, set)

	out, err := Serialize(res, set)
	require.NoError(t, err)

	assert.Contains(t, out, `<leader href="#//@members.0"/>`)
	assert.Equal(t, 1, strings.Count(out, "Alice"),
		"the leader target must appear once, at its containment location")
	assert.Contains(t, out, `xmlns:org="http://example.com/org"`)
	assert.True(t, strings.HasPrefix(out, xmlHeader), "output starts with the XML declaration")
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

func TestSerializeDeterminism(t *testing.T) {
	set := newSet(t, nil)
	res, _ := buildTeamResource(t, set)

	first, err := Serialize(res, set)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Serialize(res, set)
		require.NoError(t, err)
		assert.Equal(t, first, again, "serialization %d differs", i)
	}
}

func TestSerializeAttributeOrderFollowsFeatureOrder(t *testing.T) {
	set := newSet(t, nil)
	res := model.NewResource("p.xmi", set.Registry())
	id, err := res.Add(model.NewObject("Person"))
	require.NoError(t, err)
	require.NoError(t, res.Set(id, "age", model.Int(36)))
	require.NoError(t, res.Set(id, "name", model.String("Ada")))

	out, err := Serialize(res, set)
	require.NoError(t, err)
	assert.Contains(t, out, `age="36" name="Ada"`)
}

func TestSerializeInterleavedPrimitiveFallsBackToElementForm(t *testing.T) {
	set := newSet(t, nil)
	res := model.NewResource("team.xmi", set.Registry())
	team, err := res.Add(model.NewObject("Team"))
	require.NoError(t, err)
	member, err := res.Register(model.NewObject("Person"))
	require.NoError(t, err)
	require.NoError(t, res.Set(member, "name", model.String("Alice")))

	// members set before name: name must not jump ahead of members
	require.NoError(t, res.Set(team, "members", model.List(model.Ref(member))))
	require.NoError(t, res.Set(team, "name", model.String("Engineering")))

	out, err := Serialize(res, set)
	require.NoError(t, err)
	assert.Contains(t, out, "<name>Engineering</name>")
	memberPos := strings.Index(out, "<members")
	namePos := strings.Index(out, "<name>")
	assert.Less(t, memberPos, namePos, "element order must follow stored feature order")
}

func TestSerializeProxyHref(t *testing.T) {
	set := newSet(t, nil)
	res := model.NewResource("department-a.xmi", set.Registry())
	dept, err := res.Add(model.NewObject("Department"))
	require.NoError(t, err)
	require.NoError(t, res.Set(dept, "name", model.String("A")))
	require.NoError(t, res.Set(dept, "mainDepartment",
		model.ProxyValue(model.Proxy{URI: "department-b.xmi", Fragment: "/"})))

	out, err := Serialize(res, set)
	require.NoError(t, err)
	assert.Contains(t, out, `<mainDepartment href="department-b.xmi#/"/>`)
}

func TestSerializeForeignRefViaResourceSet(t *testing.T) {
	set := newSet(t, nil)
	other := model.NewResource("department-b.xmi", set.Registry())
	b, err := other.Add(model.NewObject("Department"))
	require.NoError(t, err)
	require.NoError(t, set.Add(other))

	res := model.NewResource("department-a.xmi", set.Registry())
	a, err := res.Add(model.NewObject("Department"))
	require.NoError(t, err)
	require.NoError(t, res.Set(a, "mainDepartment", model.Ref(b)))

	out, err := Serialize(res, set)
	require.NoError(t, err)
	assert.Contains(t, out, `<mainDepartment href="department-b.xmi#/"/>`)
}

func TestSerializeDanglingRefFails(t *testing.T) {
	set := newSet(t, nil)
	res := model.NewResource("department-a.xmi", set.Registry())
	a, err := res.Add(model.NewObject("Department"))
	require.NoError(t, err)
	require.NoError(t, res.Set(a, "mainDepartment", model.Ref(model.NewID())))

	_, err = Serialize(res, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling")
}

func TestSerializeMultiRoot(t *testing.T) {
	set := newSet(t, nil)
	res := model.NewResource("teams.xmi", set.Registry())
	for _, name := range []string{"First", "Second"} {
		id, err := res.Add(model.NewObject("Team"))
		require.NoError(t, err)
		require.NoError(t, res.Set(id, "name", model.String(name)))
	}

	out, err := Serialize(res, set)
	require.NoError(t, err)
	assert.Contains(t, out, "<xmi:XMI")
	assert.Contains(t, out, `<org:Team name="First"/>`)
	assert.Contains(t, out, `<org:Team name="Second"/>`)
}

func TestSerializeCrossRootReference(t *testing.T) {
	set := newSet(t, nil)
	res := model.NewResource("teams.xmi", set.Registry())
	first, err := res.Add(model.NewObject("Team"))
	require.NoError(t, err)
	second, err := res.Add(model.NewObject("Team"))
	require.NoError(t, err)
	member, err := res.Register(model.NewObject("Person"))
	require.NoError(t, err)
	require.NoError(t, res.Set(second, "members", model.List(model.Ref(member))))
	require.NoError(t, res.Set(first, "leader", model.Ref(member)))

	out, err := Serialize(res, set)
	require.NoError(t, err)
	assert.Contains(t, out, `<leader href="#/1//@members.0"/>`)
}

func TestSerializeEscaping(t *testing.T) {
	set := newSet(t, nil)
	res := model.NewResource("p.xmi", set.Registry())
	id, err := res.Add(model.NewObject("Person"))
	require.NoError(t, err)
	require.NoError(t, res.Set(id, "name", model.String(`R&D <"lab">`)))

	out, err := Serialize(res, set)
	require.NoError(t, err)
	assert.NotContains(t, out, `R&D <`)
	assert.Contains(t, out, "R&amp;D")
}

func TestSerializeEmptyResource(t *testing.T) {
	set := newSet(t, nil)
	res := model.NewResource("empty.xmi", set.Registry())
	out, err := Serialize(res, set)
	require.NoError(t, err)
	assert.Contains(t, out, "<xmi:XMI")
}
