package lineage

import (
	"context"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/store"
	"github.com/jward/lineage/internal/vocab"
)

// nameSteps are tried in order: preferred name, birth name, any name.
var nameSteps = []struct {
	label string
	extra []Pattern
}{
	{"preferred", []Pattern{pat(vr("name"), iri(vocab.Preferred), store.LiteralNode(vocab.True))}},
	{"birth", []Pattern{pat(vr("name"), iri(vocab.NameType), iri(vocab.BirthName))}},
	{"any", nil},
}

// ResolveName fills the person's given and last names from the first name
// that has parts. It reports whether a name was found.
func (r *Resolver) ResolveName(ctx context.Context, person *Person) (bool, error) {
	if err := requireProband(person); err != nil {
		return false, err
	}
	for _, step := range nameSteps {
		where := append([]Pattern{pat(res(person.Resource), iri(vocab.Name), vr("name"))}, step.extra...)
		rows, err := r.graph.Select(ctx, &Query{
			Where:  where,
			Select: []string{"name"},
			Limit:  1,
		})
		if err != nil {
			return false, err
		}
		if len(rows) == 0 {
			continue
		}
		given, last, n, err := r.nameParts(ctx, rows[0]["name"])
		if err != nil {
			return false, err
		}
		if n == 0 {
			continue
		}
		person.Given, person.Last = given, last
		r.log.Debug("resolved name", zap.Stringer("person", person.Resource), zap.String("step", step.label))
		return true, nil
	}
	return false, nil
}

// nameParts returns the given and surname parts of a name node in load order
// and the number of parts seen, including parts of other types.
func (r *Resolver) nameParts(ctx context.Context, name Term) (given, last []string, n int, err error) {
	rows, err := r.graph.Select(ctx, &Query{
		Where: []Pattern{
			pat(store.Fixed(name), iri(vocab.NamePart), vr("part")),
			pat(vr("part"), iri(vocab.PartType), vr("type")),
			pat(vr("part"), iri(vocab.PartValue), vr("value")),
		},
		Select: []string{"type", "value"},
	})
	if err != nil {
		return nil, nil, 0, err
	}
	for _, row := range rows {
		typ, err := row.Get("type")
		if err != nil {
			return nil, nil, 0, err
		}
		switch typ.Value {
		case vocab.Given:
			given = append(given, row["value"].Value)
		case vocab.Surname:
			last = append(last, row["value"].Value)
		}
	}
	return given, last, len(rows), nil
}
