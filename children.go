package lineage

import (
	"context"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/fault"
	"github.com/jward/lineage/internal/vocab"
)

// ResolveChildren returns the proband's children grouped by co-parent, the
// groups and their members in order of first appearance. Every child must
// resolve to a person record.
func (r *Resolver) ResolveChildren(ctx context.Context, proband *Person) ([]ChildGroup, error) {
	if err := requireProband(proband); err != nil {
		return nil, err
	}
	self := res(proband.Resource)
	rows, err := r.graph.Select(ctx, &Query{
		Where: []Pattern{
			pat(vr("rel"), iri(vocab.Type), iri(vocab.Relationship)),
			pat(vr("rel"), iri(vocab.RelationshipType), iri(vocab.ParentChild)),
			pat(vr("rel"), iri(vocab.Person1), self),
			pat(vr("rel"), iri(vocab.Person2), vr("child")),
		},
		Optional: []Group{{
			Patterns: []Pattern{
				pat(vr("other"), iri(vocab.Type), iri(vocab.Relationship)),
				pat(vr("other"), iri(vocab.RelationshipType), iri(vocab.ParentChild)),
				pat(vr("other"), iri(vocab.Person1), vr("co_parent")),
				pat(vr("other"), iri(vocab.Person2), vr("child")),
			},
			Filters: []Filter{{Left: "co_parent", Right: self}},
		}},
		Select:   []string{"child", "co_parent"},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}

	var (
		groups  []ChildGroup
		index   = make(map[string]int) // co-parent URI, "" for unknown
		members = make(map[string]map[Resource]bool)
		cache   = make(map[Resource]*Person)
	)
	for _, row := range rows {
		id, ok, err := rowResource(row, "child")
		if err != nil {
			return nil, err
		}
		if !ok {
			r.log.Debug("skipping anonymous child", zap.Stringer("person", proband.Resource))
			continue
		}
		// An anonymous co-parent is as good as an unknown one.
		var coParent *Resource
		key := ""
		if t, bound := row.Lookup("co_parent"); bound {
			cp, named, err := toResource(t)
			if err != nil {
				return nil, err
			}
			if named {
				coParent, key = &cp, cp.URI()
			}
		}

		child, ok := cache[id]
		if !ok {
			child, err = r.ResolveBase(ctx, id)
			if err != nil {
				if fault.CodeOf(err) == fault.ResourceNotFound {
					return nil, fault.Wrap(fault.ResourceNotFound, err, "child of %s", proband.Resource)
				}
				return nil, err
			}
			if _, err := r.ResolveName(ctx, child); err != nil {
				return nil, err
			}
			cache[id] = child
		}

		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, ChildGroup{CoParent: coParent})
			members[key] = make(map[Resource]bool)
		}
		if members[key][id] {
			continue
		}
		members[key][id] = true
		groups[gi].Children = append(groups[gi].Children, child)
	}
	r.log.Debug("resolved children", zap.Stringer("person", proband.Resource), zap.Int("groups", len(groups)))
	return groups, nil
}
