package lineage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/lineage/internal/fault"
	"github.com/jward/lineage/internal/store"
)

func resolveName(t *testing.T, r *Resolver, id string) (*Person, bool) {
	t.Helper()
	p := newPerson(ex(id))
	found, err := r.ResolveName(context.Background(), p)
	require.NoError(t, err)
	return p, found
}

func TestResolveName_PreferredWins(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", "")+
		nameTTL("john", "Birth", "birth", "Given:Johnny")+
		nameTTL("john", "Plain", "", "Given:Jack")+
		nameTTL("john", "Pref", "preferred", "Given:John", "Given:Robert", "Surname:Smith"))

	p, found := resolveName(t, r, "john")
	assert.True(t, found)
	assert.Equal(t, []string{"John", "Robert"}, p.Given)
	assert.Equal(t, []string{"Smith"}, p.Last)
}

func TestResolveName_BirthBeforeAny(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", "")+
		nameTTL("john", "Plain", "", "Given:Jack")+
		nameTTL("john", "Birth", "birth", "Given:Jonathan", "Surname:Doe"))

	p, found := resolveName(t, r, "john")
	assert.True(t, found)
	assert.Equal(t, []string{"Jonathan"}, p.Given)
	assert.Equal(t, []string{"Doe"}, p.Last)
}

func TestResolveName_AnyNameTakesFirstLoaded(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", "")+
		nameTTL("john", "A", "", "Surname:First")+
		nameTTL("john", "B", "", "Surname:Second"))

	p, found := resolveName(t, r, "john")
	assert.True(t, found)
	assert.Empty(t, p.Given)
	assert.Equal(t, []string{"First"}, p.Last)
}

func TestResolveName_EmptyPreferredFallsThrough(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", "")+
		nameTTL("john", "Pref", "preferred")+
		nameTTL("john", "Birth", "birth", "Given:Jonathan"))

	p, found := resolveName(t, r, "john")
	assert.True(t, found)
	assert.Equal(t, []string{"Jonathan"}, p.Given)
}

func TestResolveName_IgnoresOtherPartTypes(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", "")+
		nameTTL("john", "N", "", "Prefix:Sir", "Given:John"))

	p, found := resolveName(t, r, "john")
	assert.True(t, found)
	assert.Equal(t, []string{"John"}, p.Given)
	assert.Empty(t, p.Last)
}

func TestResolveName_NotFound(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", ""))

	p, found := resolveName(t, r, "john")
	assert.False(t, found)
	assert.Nil(t, p.Given)
	assert.Nil(t, p.Last)
}

func TestResolveName_Idempotent(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", "")+
		nameTTL("john", "N", "", "Given:John", "Given:Paul", "Surname:Jones"))

	p, _ := resolveName(t, r, "john")
	first := append([]string(nil), p.Given...)
	found, err := r.ResolveName(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, p.Given)
	assert.Equal(t, []string{"Jones"}, p.Last)
}

func TestResolveName_NilPerson(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, personTTL("john", ""))
	_, err := r.ResolveName(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInputContract)
}

// partlessGraph answers the name query with one name node and the parts
// query with rows missing their type binding.
type partlessGraph struct{}

func (partlessGraph) Select(_ context.Context, q *Query) ([]Row, error) {
	if q.Limit == 1 {
		return []Row{{"name": store.IRI("http://example.org/people/johnN")}}, nil
	}
	return []Row{{"value": store.Literal("John")}}, nil
}

func (partlessGraph) Ask(context.Context, *Query) (bool, error) { return false, nil }

func TestResolveName_MissingBindingKeepsCode(t *testing.T) {
	t.Parallel()
	r := NewResolver(partlessGraph{}, nil)
	_, err := r.ResolveName(context.Background(), newPerson(ex("john")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBindingNotFound)
	assert.Equal(t, fault.BindingNotFound, fault.CodeOf(err))
}
