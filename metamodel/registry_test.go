package metamodel

import (
	"errors"
	"testing"
)

func personClass() Class {
	return Class{
		Name: "Person",
		Features: []Feature{
			{Name: "name", Kind: KindAttribute, Type: TypeString},
			{Name: "age", Kind: KindAttribute, Type: TypeInt},
		},
	}
}

func TestDefineClassAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.DefineClass(personClass()); err != nil {
		t.Fatalf("DefineClass failed: %v", err)
	}

	c, err := r.Class("Person")
	if err != nil {
		t.Fatalf("Class lookup failed: %v", err)
	}
	if c.Name != "Person" {
		t.Errorf("Name: got %s, want Person", c.Name)
	}
	if len(c.Features) != 2 {
		t.Fatalf("Features count: got %d, want 2", len(c.Features))
	}
	if c.Features[0].Multiplicity.Upper != 1 {
		t.Errorf("zero upper bound not normalized: got %d, want 1", c.Features[0].Multiplicity.Upper)
	}
}

func TestClassNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Class("Ghost")
	if err == nil {
		t.Fatal("expected error for undefined class")
	}
	var nf *DescriptorNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected DescriptorNotFoundError, got %T", err)
	}
	if nf.Kind != "class" || nf.Name != "Ghost" {
		t.Errorf("error detail: got %s/%s, want class/Ghost", nf.Kind, nf.Name)
	}
}

func TestDefineClassDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.DefineClass(personClass()); err != nil {
		t.Fatalf("DefineClass failed: %v", err)
	}
	err := r.DefineClass(Class{Name: "Person"})
	var dup *DuplicateDescriptorError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateDescriptorError, got %v", err)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	r := NewRegistry()
	if err := r.DefineClass(personClass()); err != nil {
		t.Fatalf("DefineClass failed: %v", err)
	}

	c, _ := r.Class("Person")
	c.Features[0].Name = "mutated"
	c.Name = "Mutated"

	again, _ := r.Class("Person")
	if again.Features[0].Name != "name" {
		t.Error("registered descriptor was mutated through a lookup result")
	}
}

func TestDefineAttributeAndReference(t *testing.T) {
	r := NewRegistry()
	if err := r.DefineClass(Class{Name: "Team"}); err != nil {
		t.Fatalf("DefineClass failed: %v", err)
	}
	if err := r.DefineAttribute("Team", Attribute{Name: "name", Type: TypeString}); err != nil {
		t.Fatalf("DefineAttribute failed: %v", err)
	}
	err := r.DefineReference("Team", Reference{
		Name:         "members",
		Target:       "Person",
		Containment:  true,
		Multiplicity: Multiplicity{Lower: 0, Upper: Unbounded},
	})
	if err != nil {
		t.Fatalf("DefineReference failed: %v", err)
	}

	f, err := r.Feature("Team", "members")
	if err != nil {
		t.Fatalf("Feature lookup failed: %v", err)
	}
	if !f.IsReference() || !f.Containment {
		t.Errorf("members descriptor: got %+v, want containment reference", f)
	}
	if !f.Multiplicity.Many() {
		t.Error("members should be many-valued")
	}

	if err := r.DefineAttribute("Missing", Attribute{Name: "x", Type: TypeString}); !IsNotFound(err) {
		t.Errorf("expected not-found for unknown class, got %v", err)
	}
}

func TestDefineAttributeDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.DefineClass(personClass()); err != nil {
		t.Fatalf("DefineClass failed: %v", err)
	}
	err := r.DefineAttribute("Person", Attribute{Name: "name", Type: TypeString})
	var dup *DuplicateDescriptorError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateDescriptorError, got %v", err)
	}
}

func TestAllFeaturesInheritanceOrder(t *testing.T) {
	r := NewRegistry()
	mustDefine := func(c Class) {
		t.Helper()
		if err := r.DefineClass(c); err != nil {
			t.Fatalf("DefineClass %s failed: %v", c.Name, err)
		}
	}
	mustDefine(Class{Name: "Named", Features: []Feature{
		{Name: "name", Kind: KindAttribute, Type: TypeString},
	}})
	mustDefine(Class{Name: "Aged", Features: []Feature{
		{Name: "age", Kind: KindAttribute, Type: TypeInt},
		{Name: "name", Kind: KindAttribute, Type: TypeString}, // shadowed by Employee's own
	}})
	mustDefine(Class{Name: "Employee", SuperTypes: []string{"Named", "Aged"}, Features: []Feature{
		{Name: "salary", Kind: KindAttribute, Type: TypeFloat},
	}})

	feats, err := r.AllFeatures("Employee")
	if err != nil {
		t.Fatalf("AllFeatures failed: %v", err)
	}
	var names []string
	for _, f := range feats {
		names = append(names, f.Name)
	}
	want := []string{"salary", "name", "age"}
	if len(names) != len(want) {
		t.Fatalf("feature names: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("feature names: got %v, want %v", names, want)
		}
	}
}

func TestDefineEnum(t *testing.T) {
	r := NewRegistry()
	err := r.DefineEnum(Enum{Name: "Status", Literals: []EnumLiteral{
		{Name: "active", Value: 0},
		{Name: "retired", Value: 1},
	}})
	if err != nil {
		t.Fatalf("DefineEnum failed: %v", err)
	}

	e, err := r.Enum("Status")
	if err != nil {
		t.Fatalf("Enum lookup failed: %v", err)
	}
	if lit, ok := e.Literal("retired"); !ok || lit.Value != 1 {
		t.Errorf("Literal retired: got %+v/%v", lit, ok)
	}
	if _, ok := e.Literal("unknown"); ok {
		t.Error("unexpected literal match")
	}
}

func TestPackageByURI(t *testing.T) {
	r := NewRegistry()
	if err := r.DefinePackage(Package{Name: "org", URI: "http://example.com/org", Prefix: "org"}); err != nil {
		t.Fatalf("DefinePackage failed: %v", err)
	}
	p, err := r.PackageByURI("http://example.com/org")
	if err != nil {
		t.Fatalf("PackageByURI failed: %v", err)
	}
	if p.Prefix != "org" {
		t.Errorf("Prefix: got %s, want org", p.Prefix)
	}
	if _, err := r.PackageByURI("http://example.com/other"); !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	data := []byte(`{
		"version": "1",
		"packages": [{"name": "org", "uri": "http://example.com/org", "prefix": "org"}],
		"enums": [{"name": "Status", "literals": [{"name": "active", "value": 0}]}],
		"classes": [
			{"name": "Person", "package": "org", "features": [
				{"name": "name", "kind": "attribute", "type": "string"},
				{"name": "status", "kind": "attribute", "type": "Status"}
			]},
			{"name": "Team", "package": "org", "features": [
				{"name": "members", "kind": "reference", "target": "Person",
				 "containment": true, "multiplicity": {"lower": 0, "upper": -1}}
			]}
		]
	}`)

	r, err := LoadJSON(data)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if got := len(r.Classes()); got != 2 {
		t.Errorf("class count: got %d, want 2", got)
	}
	f, err := r.Feature("Team", "members")
	if err != nil {
		t.Fatalf("Feature lookup failed: %v", err)
	}
	if f.Multiplicity.Upper != Unbounded {
		t.Errorf("members upper bound: got %d, want unbounded", f.Multiplicity.Upper)
	}
}

func TestToJSONRoundTrip(t *testing.T) {
	r := NewRegistry()
	if err := r.DefinePackage(Package{Name: "org", URI: "http://example.com/org", Prefix: "org"}); err != nil {
		t.Fatal(err)
	}
	if err := r.DefineClass(personClass()); err != nil {
		t.Fatal(err)
	}

	data, err := r.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	again, err := LoadJSON(data)
	if err != nil {
		t.Fatalf("reloading ToJSON output failed: %v", err)
	}
	f, err := again.Feature("Person", "age")
	if err != nil {
		t.Fatalf("Feature lookup after reload failed: %v", err)
	}
	if f.Type != TypeInt {
		t.Errorf("age type after reload: got %s, want int", f.Type)
	}
}

func TestLoadJSONInvalid(t *testing.T) {
	if _, err := LoadJSON([]byte(`{"classes": [}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := LoadJSON([]byte(`{"classes": [{"name": ""}]}`)); err == nil {
		t.Error("expected error for unnamed class")
	}
}
