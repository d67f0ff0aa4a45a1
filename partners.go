package lineage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/vocab"
)

// Evidence strength of a partner candidate; lower is stronger.
const (
	stated   = 0
	inferred = 1
)

// ResolvePartners returns the proband's partners. Couple relationships in
// either direction are stated partners; co-parents of a shared child are
// inferred partners unless also stated. Each inferred partner adds an Info
// note. Partners are ordered by first appearance, stated ones first.
func (r *Resolver) ResolvePartners(ctx context.Context, proband *Person, notes *NoteList) ([]Partner, error) {
	if err := requireProband(proband); err != nil {
		return nil, err
	}
	if err := requireNotes(notes); err != nil {
		return nil, err
	}
	self := res(proband.Resource)

	queries := []struct {
		strength int
		q        *Query
	}{
		{stated, coupleQuery(self, vocab.Person1, vocab.Person2)},
		{stated, coupleQuery(self, vocab.Person2, vocab.Person1)},
		{inferred, &Query{
			Where: []Pattern{
				pat(vr("rel"), iri(vocab.Type), iri(vocab.Relationship)),
				pat(vr("rel"), iri(vocab.RelationshipType), iri(vocab.ParentChild)),
				pat(vr("rel"), iri(vocab.Person1), self),
				pat(vr("rel"), iri(vocab.Person2), vr("child")),
				pat(vr("other"), iri(vocab.Type), iri(vocab.Relationship)),
				pat(vr("other"), iri(vocab.RelationshipType), iri(vocab.ParentChild)),
				pat(vr("other"), iri(vocab.Person1), vr("partner")),
				pat(vr("other"), iri(vocab.Person2), vr("child")),
			},
			Filters:  []Filter{{Left: "partner", Right: self}},
			Select:   []string{"partner"},
			Distinct: true,
		}},
	}

	var order []Resource
	strength := make(map[Resource]int)
	for _, sq := range queries {
		rows, err := r.graph.Select(ctx, sq.q)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			id, ok, err := rowResource(row, "partner")
			if err != nil {
				return nil, err
			}
			if !ok {
				r.log.Debug("skipping anonymous partner", zap.Stringer("person", proband.Resource))
				continue
			}
			prev, seen := strength[id]
			if !seen {
				order = append(order, id)
				strength[id] = sq.strength
				continue
			}
			strength[id] = min(prev, sq.strength)
		}
	}

	partners := make([]Partner, 0, len(order))
	for _, id := range order {
		person := newPerson(id)
		if _, err := r.ResolveName(ctx, person); err != nil {
			return nil, err
		}
		isInferred := strength[id] == inferred
		if isInferred {
			notes.Add(NewNote(NoteInfo, NoteInferredPartner,
				fmt.Sprintf("%s is inferred to be a partner of %s through a shared child", person.DisplayName(), proband.DisplayName()),
				map[string]Variable{
					"person":  ResourceRef(proband.Resource),
					"partner": ResourceRef(id),
				},
			))
		}
		partners = append(partners, Partner{Person: person, Inferred: isInferred})
	}
	r.log.Debug("resolved partners", zap.Stringer("person", proband.Resource), zap.Int("count", len(partners)))
	return partners, nil
}

// coupleQuery selects ?partner from Couple relationships with self at from.
func coupleQuery(self Node, from, to string) *Query {
	return &Query{
		Where: []Pattern{
			pat(vr("rel"), iri(vocab.Type), iri(vocab.Relationship)),
			pat(vr("rel"), iri(vocab.RelationshipType), iri(vocab.Couple)),
			pat(vr("rel"), iri(from), self),
			pat(vr("rel"), iri(to), vr("partner")),
		},
		Select:   []string{"partner"},
		Distinct: true,
	}
}
