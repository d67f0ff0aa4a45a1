package lineage

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/lineage/internal/store"
)

const ttlPrefixes = `@prefix gx: <http://gedcomx.org/> .
@prefix ex: <http://example.org/people/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
`

// ex returns the resource for a local name in the example namespace.
func ex(name string) Resource {
	return MustResource("http://example.org/people/" + name)
}

// personTTL declares a person with an optional gender (Male, Female, Unknown).
func personTTL(id, gender string) string {
	if gender == "" {
		return fmt.Sprintf("ex:%s a gx:Person .\n", id)
	}
	return fmt.Sprintf("ex:%s a gx:Person ; gx:gender gx:%s .\n", id, gender)
}

// nameTTL attaches name node ex:<person><suffix> to person. flag is "",
// "preferred" or "birth". parts are "Given:John" style pairs.
func nameTTL(person, suffix, flag string, parts ...string) string {
	node := person + suffix
	var b strings.Builder
	fmt.Fprintf(&b, "ex:%s gx:name ex:%s .\n", person, node)
	switch flag {
	case "preferred":
		fmt.Fprintf(&b, "ex:%s gx:preferred \"true\"^^xsd:boolean .\n", node)
	case "birth":
		fmt.Fprintf(&b, "ex:%s gx:type gx:BirthName .\n", node)
	}
	for i, part := range parts {
		typ, value, _ := strings.Cut(part, ":")
		fmt.Fprintf(&b, "ex:%s gx:part ex:%sP%d .\n", node, node, i)
		fmt.Fprintf(&b, "ex:%sP%d gx:type gx:%s ; gx:value %q .\n", node, i, typ, value)
	}
	return b.String()
}

func parentChildTTL(id, parent, child string) string {
	return fmt.Sprintf("ex:%s a gx:Relationship ; gx:type gx:ParentChild ; gx:person1 ex:%s ; gx:person2 ex:%s .\n", id, parent, child)
}

func coupleTTL(id, a, b string) string {
	return fmt.Sprintf("ex:%s a gx:Relationship ; gx:type gx:Couple ; gx:person1 ex:%s ; gx:person2 ex:%s .\n", id, a, b)
}

// newTestGraph loads each document into a fresh in-memory store as its own
// file, f0.ttl, f1.ttl and so on.
func newTestGraph(t *testing.T, docs ...string) *store.Store {
	t.Helper()
	s, err := store.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	for i, doc := range docs {
		_, err := s.LoadReader(context.Background(), fmt.Sprintf("f%d.ttl", i), strings.NewReader(ttlPrefixes+doc))
		require.NoError(t, err)
	}
	return s
}

func newTestResolver(t *testing.T, docs ...string) *Resolver {
	t.Helper()
	return NewResolver(newTestGraph(t, docs...), nil)
}

func uris(ps []*Person) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Resource.URI()
	}
	return out
}

// =============================================================================
// Base record
// =============================================================================

func TestResolveBase_Attributes(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", "Male")+
		`ex:john gx:birthDate "1900-01-01"^^xsd:date ; gx:deathDate "1970" .`)

	p, err := r.ResolveBase(context.Background(), ex("john"))
	require.NoError(t, err)
	assert.Equal(t, ex("john"), p.Resource)
	assert.Equal(t, GenderMale, p.Gender)
	assert.Equal(t, "1900-01-01", p.Birth)
	assert.Equal(t, "1970", p.Death)
	assert.Nil(t, p.Father)
	assert.Empty(t, p.Partners)
}

func TestResolveBase_Genders(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t,
		personTTL("a", "")+
			personTTL("b", "Female")+
			personTTL("c", "Unknown")+
			personTTL("d", "Male")+"ex:d gx:gender gx:Female .\n"+
			personTTL("e", "Other"),
	)
	want := map[string]Gender{
		"a": GenderAbsent,
		"b": GenderFemale,
		"c": GenderUnknown,
		"d": GenderInvalid,
		"e": GenderInvalid,
	}
	for id, g := range want {
		p, err := r.ResolveBase(context.Background(), ex(id))
		require.NoError(t, err, id)
		assert.Equal(t, g, p.Gender, id)
	}
}

func TestResolveBase_NotAPerson(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, `ex:thing gx:gender gx:Male .`)
	_, err := r.ResolveBase(context.Background(), ex("thing"))
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = r.ResolveBase(context.Background(), Resource{})
	assert.ErrorIs(t, err, ErrInputContract)
}

// =============================================================================
// Persons / FindPerson
// =============================================================================

func TestPersons_SortedAndDistinct(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t,
		personTTL("zoe", "")+personTTL("adam", ""),
		personTTL("adam", "")+"_:anon a gx:Person .\n",
	)
	got, err := r.Persons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Resource{ex("adam"), ex("zoe")}, got)
}

func TestFindPerson(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t,
		personTTL("john", "")+
			`<http://example.org/other/john> a gx:Person .
<http://example.org/people/mary> a gx:Person .`,
	)
	ctx := context.Background()

	got, err := r.FindPerson(ctx, "http://example.org/people/john")
	require.NoError(t, err)
	assert.Equal(t, ex("john"), got)

	got, err = r.FindPerson(ctx, "mary")
	require.NoError(t, err)
	assert.Equal(t, ex("mary"), got)

	got, err = r.FindPerson(ctx, "people/john")
	require.NoError(t, err)
	assert.Equal(t, ex("john"), got)

	_, err = r.FindPerson(ctx, "john")
	assert.ErrorIs(t, err, ErrMultipleResourcesFound)

	_, err = r.FindPerson(ctx, "nobody")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = r.FindPerson(ctx, "http://example.org/people/nobody")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = r.FindPerson(ctx, "")
	assert.ErrorIs(t, err, ErrInputContract)

	// "ohn" must not match "john" as a bare suffix.
	_, err = r.FindPerson(ctx, "ohn")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

// =============================================================================
// Full resolution
// =============================================================================

func TestResolvePerson_Family(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t,
		personTTL("john", "Male")+nameTTL("john", "N", "", "Given:John", "Surname:Smith")+
			personTTL("mary", "Female")+nameTTL("mary", "N", "", "Given:Mary")+
			personTTL("jim", "Male")+nameTTL("jim", "N", "", "Given:Jim")+
			personTTL("gramps", "Male")+
			parentChildTTL("r1", "john", "jim")+
			parentChildTTL("r2", "mary", "jim")+
			parentChildTTL("r3", "gramps", "john")+
			coupleTTL("c1", "john", "mary"),
	)
	var notes NoteList
	p, err := r.ResolvePerson(context.Background(), ex("john"), &notes)
	require.NoError(t, err)

	assert.Equal(t, []string{"John"}, p.Given)
	assert.Equal(t, []string{"Smith"}, p.Last)
	require.NotNil(t, p.Father)
	assert.Equal(t, ex("gramps"), p.Father.Resource)
	assert.Nil(t, p.Father.Father, "grandparents are not resolved")
	assert.Nil(t, p.Mother)

	require.Len(t, p.Partners, 1)
	assert.Equal(t, ex("mary"), p.Partners[0].Person.Resource)
	assert.False(t, p.Partners[0].Inferred)
	assert.Equal(t, []string{"Mary"}, p.Partners[0].Person.Given)

	require.Len(t, p.Children, 1)
	require.NotNil(t, p.Children[0].CoParent)
	assert.Equal(t, ex("mary"), *p.Children[0].CoParent)
	assert.Equal(t, []string{ex("jim").URI()}, uris(p.Children[0].Children))

	assert.Empty(t, notes)
}

func TestResolvePerson_NilNotes(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", ""))
	_, err := r.ResolvePerson(context.Background(), ex("john"), nil)
	assert.ErrorIs(t, err, ErrInputContract)
}

func TestResolvePerson_AnonymousRelativesSkipped(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t,
		personTTL("john", "Male")+
			personTTL("jim", "")+
			"_:m gx:gender gx:Female .\n"+
			parentChildTTL("r1", "john", "jim")+
			"ex:r2 a gx:Relationship ; gx:type gx:ParentChild ; gx:person1 _:m ; gx:person2 ex:jim .\n"+
			"ex:c1 a gx:Relationship ; gx:type gx:Couple ; gx:person1 ex:john ; gx:person2 _:w .\n"+
			"ex:r3 a gx:Relationship ; gx:type gx:ParentChild ; gx:person1 ex:john ; gx:person2 _:kid .\n",
	)
	ctx := context.Background()

	var notes NoteList
	jim, err := r.ResolvePerson(ctx, ex("jim"), &notes)
	require.NoError(t, err)
	require.NotNil(t, jim.Father)
	assert.Equal(t, ex("john"), jim.Father.Resource)
	assert.Nil(t, jim.Mother, "an anonymous mother is no mother")

	john, err := r.ResolvePerson(ctx, ex("john"), &notes)
	require.NoError(t, err)
	assert.Empty(t, john.Partners, "the anonymous co-parent is not inferred as partner")
	require.Len(t, john.Children, 1)
	assert.Nil(t, john.Children[0].CoParent, "anonymous co-parent groups as unknown")
	assert.Equal(t, []string{ex("jim").URI()}, uris(john.Children[0].Children))
	assert.Empty(t, notes)

	persons, err := r.Persons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Resource{ex("jim"), ex("john")}, persons)
}

func TestPerson_EqualTerminatesOnCycles(t *testing.T) {
	a := &Person{Resource: ex("a")}
	b := &Person{Resource: ex("b")}
	kid := &Person{Resource: ex("kid")}
	coB := ex("b")
	a.Partners = []Partner{{Person: b}}
	b.Partners = []Partner{{Person: a}}
	a.Children = []ChildGroup{{CoParent: &coB, Children: []*Person{kid}}}
	kid.Father = a
	kid.Mother = b

	other := &Person{Resource: ex("a")}
	other.Partners = []Partner{{Person: &Person{Resource: ex("b"), Partners: []Partner{{Person: other}}}}}
	otherCo := ex("b")
	other.Children = []ChildGroup{{CoParent: &otherCo, Children: []*Person{{Resource: ex("kid")}}}}

	assert.True(t, a.Equal(other))
	assert.True(t, b.Equal(b))
	assert.False(t, a.Equal(b))

	other.Children[0].CoParent = nil
	assert.False(t, a.Equal(other), "unknown co-parent differs from a known one")
	elsewhere := ex("z")
	other.Children[0].CoParent = &elsewhere
	assert.False(t, a.Equal(other))
	other.Children[0].CoParent = &otherCo

	other.Partners[0].Inferred = true
	assert.False(t, a.Equal(other))
}

func TestPerson_EqualByIdentity(t *testing.T) {
	a := &Person{Resource: ex("a"), Given: []string{"A"}}
	b := &Person{Resource: ex("b")}
	a.Partners = []Partner{{Person: b}}
	b.Partners = []Partner{{Person: a}}

	a2 := &Person{Resource: ex("a"), Given: []string{"A"}}
	a2.Partners = []Partner{{Person: &Person{Resource: ex("b"), Given: []string{"different"}}}}

	assert.True(t, a.Equal(a2), "related persons compare by identity only")
	assert.True(t, a.Equal(a))

	a2.Partners[0].Inferred = true
	assert.False(t, a.Equal(a2))

	co := ex("c")
	a.Children = []ChildGroup{{CoParent: &co, Children: []*Person{b}}}
	a2.Partners[0].Inferred = false
	assert.False(t, a.Equal(a2))
	a2.Children = []ChildGroup{{CoParent: &co, Children: []*Person{{Resource: ex("b")}}}}
	assert.True(t, a.Equal(a2))

	var nilPerson *Person
	assert.True(t, nilPerson.Equal(nil))
	assert.False(t, a.Equal(nil))
}

func TestPerson_DisplayName(t *testing.T) {
	p := &Person{Resource: ex("x")}
	assert.Equal(t, "http://example.org/people/x", p.DisplayName())
	p.Given = []string{"Ann", "Marie"}
	p.Last = []string{"Lee"}
	assert.Equal(t, "Ann Marie Lee", p.DisplayName())
}
