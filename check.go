package lineage

import (
	"context"
	"regexp"
	"strconv"

	"github.com/jward/lineage/internal/fault"
	"github.com/jward/lineage/internal/runtime"
)

// checkHost serves resolved persons to check scripts and collects the notes
// they raise.
type checkHost struct {
	resolver *Resolver
	persons  []string
	records  map[string]*runtime.Record
	notes    NoteList
}

var _ runtime.Host = (*checkHost)(nil)

// newCheckHost resolves every person once. Notes raised during resolution
// start the host's note list.
func newCheckHost(ctx context.Context, r *Resolver) (*checkHost, error) {
	ids, err := r.Persons(ctx)
	if err != nil {
		return nil, err
	}
	h := &checkHost{
		resolver: r,
		persons:  make([]string, len(ids)),
		records:  make(map[string]*runtime.Record, len(ids)),
	}
	for i, id := range ids {
		p, err := r.ResolvePerson(ctx, id, &h.notes)
		if err != nil {
			return nil, err
		}
		h.persons[i] = id.URI()
		h.records[id.URI()] = toRecord(p)
	}
	return h, nil
}

func (h *checkHost) Persons(context.Context) ([]string, error) {
	return h.persons, nil
}

func (h *checkHost) Describe(ctx context.Context, uri string) (*runtime.Record, error) {
	if rec, ok := h.records[uri]; ok {
		return rec, nil
	}
	id, err := NewResource(uri)
	if err != nil {
		return nil, err
	}
	// Notes for persons outside the listing were never asked for.
	var scratch NoteList
	p, err := h.resolver.ResolvePerson(ctx, id, &scratch)
	if err != nil {
		return nil, err
	}
	rec := toRecord(p)
	h.records[uri] = rec
	return rec, nil
}

func (h *checkHost) Note(_ context.Context, n runtime.Note) error {
	t, err := ParseNoteType(n.Type)
	if err != nil {
		return err
	}
	if n.ID == "" {
		return fault.New(fault.InputContract, "note without id")
	}
	vars := make(map[string]Variable, len(n.Vars))
	for name, v := range n.Vars {
		conv, err := toVariable(v)
		if err != nil {
			return fault.Wrap(fault.InputContract, err, "note %s: var %s", n.ID, name)
		}
		vars[name] = conv
	}
	h.notes.Add(NewNote(t, n.ID, n.Text, vars))
	return nil
}

func toVariable(v any) (Variable, error) {
	switch val := v.(type) {
	case int64:
		return Integer(val), nil
	case string:
		return String(val), nil
	case runtime.Ref:
		r, err := NewResource(val.URI)
		if err != nil {
			return nil, err
		}
		return ResourceRef(r), nil
	case []any:
		seq := make(Sequence, 0, len(val))
		for _, item := range val {
			conv, err := toVariable(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, conv)
		}
		return seq, nil
	}
	return nil, fault.New(fault.InputContract, "unsupported value %T", v)
}

func toRecord(p *Person) *runtime.Record {
	rec := &runtime.Record{
		URI:       p.Resource.URI(),
		UniqueID:  p.Resource.UniqueID(),
		Gender:    string(p.Gender),
		Given:     p.Given,
		Last:      p.Last,
		Birth:     p.Birth,
		Death:     p.Death,
		BirthYear: yearOf(p.Birth),
		DeathYear: yearOf(p.Death),
	}
	if p.Father != nil {
		rec.Father = p.Father.Resource.URI()
	}
	if p.Mother != nil {
		rec.Mother = p.Mother.Resource.URI()
	}
	for _, partner := range p.Partners {
		rec.Partners = append(rec.Partners, partner.Person.Resource.URI())
	}
	for _, group := range p.Children {
		for _, c := range group.Children {
			rec.Children = append(rec.Children, c.Resource.URI())
		}
	}
	return rec
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// yearOf returns the first four-digit run of a date, or 0.
func yearOf(date string) int {
	m := yearPattern.FindString(date)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}
