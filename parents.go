package lineage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/fault"
	"github.com/jward/lineage/internal/vocab"
)

// parentKinds maps a parent gender to the gender IRI candidates must carry,
// the note raised on ambiguity and the name of its sequence variable.
var parentKinds = map[Gender]struct {
	iri, noteID, varName string
}{
	GenderMale:   {vocab.Male, NoteMultipleFathers, "fathers"},
	GenderFemale: {vocab.Female, NoteMultipleMothers, "mothers"},
}

// ResolveFather is ResolveParent for GenderMale.
func (r *Resolver) ResolveFather(ctx context.Context, proband *Person, notes *NoteList) (*Person, error) {
	return r.ResolveParent(ctx, proband, GenderMale, notes)
}

// ResolveMother is ResolveParent for GenderFemale.
func (r *Resolver) ResolveMother(ctx context.Context, proband *Person, notes *NoteList) (*Person, error) {
	return r.ResolveParent(ctx, proband, GenderFemale, notes)
}

// ResolveParent returns the proband's parent of the given gender, or nil when
// there is none. Several candidates are an ambiguity: an Error note listing
// them is added and nil is returned.
func (r *Resolver) ResolveParent(ctx context.Context, proband *Person, gender Gender, notes *NoteList) (*Person, error) {
	if err := requireProband(proband); err != nil {
		return nil, err
	}
	if err := requireNotes(notes); err != nil {
		return nil, err
	}
	kind, ok := parentKinds[gender]
	if !ok {
		return nil, fault.New(fault.InputContract, "parent gender must be male or female, got %q", gender)
	}

	rows, err := r.graph.Select(ctx, &Query{
		Where: []Pattern{
			pat(vr("rel"), iri(vocab.Type), iri(vocab.Relationship)),
			pat(vr("rel"), iri(vocab.RelationshipType), iri(vocab.ParentChild)),
			pat(vr("rel"), iri(vocab.Person1), vr("parent")),
			pat(vr("rel"), iri(vocab.Person2), res(proband.Resource)),
			pat(vr("parent"), iri(vocab.Gender), iri(kind.iri)),
		},
		Select:   []string{"parent"},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	candidates := make([]*Person, 0, len(rows))
	for _, row := range rows {
		id, ok, err := rowResource(row, "parent")
		if err != nil {
			return nil, err
		}
		if !ok {
			r.log.Debug("skipping anonymous parent", zap.Stringer("person", proband.Resource))
			continue
		}
		c := newPerson(id)
		c.Gender = gender
		if _, err := r.ResolveName(ctx, c); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}

	ids := make([]Resource, len(candidates))
	names := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Resource
		names[i] = c.DisplayName()
	}
	r.log.Warn("ambiguous parent",
		zap.Stringer("person", proband.Resource),
		zap.String("gender", string(gender)),
		zap.Int("candidates", len(candidates)),
	)
	notes.Add(NewNote(NoteError, kind.noteID,
		fmt.Sprintf("%s has %d %s: %s", proband.DisplayName(), len(candidates), kind.varName, strings.Join(names, ", ")),
		map[string]Variable{
			"person":     ResourceRef(proband.Resource),
			kind.varName: ResourceSequence(ids),
		},
	))
	return nil, nil
}
