package lineage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/fault"
	"github.com/jward/lineage/internal/store"
	"github.com/jward/lineage/internal/vocab"
)

// Resolver turns facts in a Graph into Person records. It holds no state
// between calls beyond its collaborators.
type Resolver struct {
	graph Graph
	log   *zap.Logger
}

// NewResolver returns a Resolver querying g. A nil logger discards output.
func NewResolver(g Graph, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{graph: g, log: log}
}

func vr(name string) Node { return store.Var(name) }

func iri(s string) Node { return store.IRINode(s) }

func res(r Resource) Node { return store.IRINode(r.URI()) }

func pat(s, pr, o Node) Pattern { return store.P(s, pr, o) }

// toResource converts a bound term to a Resource. Only IRIs name persons:
// ok is false for anonymous terms, which callers skip.
func toResource(t Term) (id Resource, ok bool, err error) {
	if !t.IsIRI() {
		return Resource{}, false, nil
	}
	id, err = NewResource(t.Value)
	if err != nil {
		return Resource{}, false, err
	}
	return id, true, nil
}

// rowResource reads binding name from row as a Resource.
func rowResource(row Row, name string) (Resource, bool, error) {
	t, err := row.Get(name)
	if err != nil {
		return Resource{}, false, err
	}
	return toResource(t)
}

func requireNotes(notes *NoteList) error {
	if notes == nil {
		return fault.New(fault.InputContract, "note list is nil")
	}
	return nil
}

func requireProband(proband *Person) error {
	if proband == nil || proband.Resource.IsZero() {
		return fault.New(fault.InputContract, "proband is absent")
	}
	return nil
}

// ResolveBase loads the record of a single person without relationships.
// The resource must be typed as a person.
func (r *Resolver) ResolveBase(ctx context.Context, id Resource) (*Person, error) {
	if id.IsZero() {
		return nil, fault.New(fault.InputContract, "resource is absent")
	}
	ok, err := r.graph.Ask(ctx, &Query{
		Where: []Pattern{pat(res(id), iri(vocab.Type), iri(vocab.Person))},
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.New(fault.ResourceNotFound, "no person %s", id)
	}

	person := newPerson(id)
	rows, err := r.graph.Select(ctx, &Query{
		Where:    []Pattern{pat(res(id), iri(vocab.Gender), vr("gender"))},
		Select:   []string{"gender"},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
	case 1:
		person.Gender = genderOf(rows[0]["gender"])
	default:
		r.log.Debug("conflicting genders", zap.Stringer("person", id), zap.Int("count", len(rows)))
		person.Gender = GenderInvalid
	}

	if person.Birth, err = r.literal(ctx, id, vocab.BirthDate); err != nil {
		return nil, err
	}
	if person.Death, err = r.literal(ctx, id, vocab.DeathDate); err != nil {
		return nil, err
	}
	return person, nil
}

// literal returns the first value of predicate pred on id, or "".
func (r *Resolver) literal(ctx context.Context, id Resource, pred string) (string, error) {
	rows, err := r.graph.Select(ctx, &Query{
		Where:  []Pattern{pat(res(id), iri(pred), vr("value"))},
		Select: []string{"value"},
		Limit:  1,
	})
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return rows[0]["value"].Value, nil
}

func genderOf(t Term) Gender {
	if !t.IsIRI() {
		return GenderInvalid
	}
	switch t.Value {
	case vocab.Male:
		return GenderMale
	case vocab.Female:
		return GenderFemale
	case vocab.UnknownGender:
		return GenderUnknown
	}
	return GenderInvalid
}

// ResolvePerson resolves the base record, name, parents, partners and
// children of id. Related persons carry their own base record and name only.
func (r *Resolver) ResolvePerson(ctx context.Context, id Resource, notes *NoteList) (*Person, error) {
	if err := requireNotes(notes); err != nil {
		return nil, err
	}
	person, err := r.ResolveBase(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.ResolveName(ctx, person); err != nil {
		return nil, err
	}
	if person.Father, err = r.ResolveFather(ctx, person, notes); err != nil {
		return nil, err
	}
	if person.Mother, err = r.ResolveMother(ctx, person, notes); err != nil {
		return nil, err
	}
	if person.Partners, err = r.ResolvePartners(ctx, person, notes); err != nil {
		return nil, err
	}
	if person.Children, err = r.ResolveChildren(ctx, person); err != nil {
		return nil, err
	}
	r.log.Debug("resolved person",
		zap.Stringer("person", id),
		zap.Int("partners", len(person.Partners)),
		zap.Int("child_groups", len(person.Children)),
	)
	return person, nil
}

// Persons returns every resource typed as a person, sorted by URI.
func (r *Resolver) Persons(ctx context.Context) ([]Resource, error) {
	rows, err := r.graph.Select(ctx, &Query{
		Where:    []Pattern{pat(vr("person"), iri(vocab.Type), iri(vocab.Person))},
		Select:   []string{"person"},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Resource, 0, len(rows))
	for _, row := range rows {
		t := row["person"]
		if !t.IsIRI() {
			r.log.Debug("skipping anonymous person", zap.Stringer("term", t))
			continue
		}
		id, err := NewResource(t.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	SortResources(out)
	return out, nil
}

// FindPerson resolves a user-supplied reference to a person. A full URI is
// checked directly; anything else is matched against the end of each
// person's UniqueID.
func (r *Resolver) FindPerson(ctx context.Context, ref string) (Resource, error) {
	if ref == "" {
		return Resource{}, fault.New(fault.InputContract, "empty person reference")
	}
	if strings.Contains(ref, "://") {
		id, err := NewResource(ref)
		if err != nil {
			return Resource{}, err
		}
		ok, err := r.graph.Ask(ctx, &Query{
			Where: []Pattern{pat(res(id), iri(vocab.Type), iri(vocab.Person))},
		})
		if err != nil {
			return Resource{}, err
		}
		if !ok {
			return Resource{}, fault.New(fault.ResourceNotFound, "no person %s", ref)
		}
		return id, nil
	}

	persons, err := r.Persons(ctx)
	if err != nil {
		return Resource{}, err
	}
	ref = strings.TrimPrefix(ref, "/")
	var matches []Resource
	for _, id := range persons {
		uid := id.UniqueID()
		if uid == ref || strings.HasSuffix(uid, "/"+ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return Resource{}, fault.New(fault.ResourceNotFound, "no person matches %q", ref)
	case 1:
		return matches[0], nil
	}
	uris := make([]string, len(matches))
	for i, m := range matches {
		uris[i] = m.URI()
	}
	return Resource{}, fault.New(fault.MultipleResourcesFound, "%q matches %s", ref, strings.Join(uris, ", "))
}
