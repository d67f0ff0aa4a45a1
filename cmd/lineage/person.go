package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/lineage"
)

var personCmd = &cobra.Command{
	Use:   "person <uri|id>",
	Short: "Resolve one person with parents, partners and children",
	Long:  "Resolves a person given a full URI or the tail of its host and path, e.g. people/john. Ambiguous or unknown references are errors.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPerson,
}

var personsCmd = &cobra.Command{
	Use:   "persons",
	Short: "List every person in the graph",
	Args:  cobra.NoArgs,
	RunE:  runPersons,
}

func runPerson(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEngine(ctx)
	if err != nil {
		return outputError("person", err)
	}
	defer e.Close()

	r := e.Resolver()
	id, err := r.FindPerson(ctx, args[0])
	if err != nil {
		return outputError("person", err)
	}
	var notes lineage.NoteList
	p, err := r.ResolvePerson(ctx, id, &notes)
	if err != nil {
		return outputError("person", err)
	}
	sources, err := e.Sources(ctx, id)
	if err != nil {
		return outputError("person", err)
	}
	if sources == nil {
		sources = []string{}
	}
	if notes == nil {
		notes = lineage.NoteList{}
	}
	return outputResult(CLIResult{
		Command: "person",
		Results: CLIPersonResult{Person: toCLIPerson(p), Sources: sources, Notes: notes},
	})
}

func runPersons(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEngine(ctx)
	if err != nil {
		return outputError("persons", err)
	}
	defer e.Close()

	r := e.Resolver()
	ids, err := r.Persons(ctx)
	if err != nil {
		return outputError("persons", err)
	}
	out := make([]CLIPersonSummary, 0, len(ids))
	for _, id := range ids {
		p, err := r.ResolveBase(ctx, id)
		if err != nil {
			return outputError("persons", err)
		}
		if _, err := r.ResolveName(ctx, p); err != nil {
			return outputError("persons", err)
		}
		out = append(out, CLIPersonSummary{URI: id.URI(), UniqueID: id.UniqueID(), Name: p.DisplayName()})
	}
	return outputResult(CLIResult{
		Command:    "persons",
		Results:    out,
		TotalCount: intPtr(len(out)),
	})
}
