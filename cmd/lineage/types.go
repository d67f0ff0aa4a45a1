package main

import "github.com/jward/lineage"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIRelative names a related person.
type CLIRelative struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// CLIPartner is a partner, flagged when only a shared child links them.
type CLIPartner struct {
	CLIRelative
	Inferred bool `json:"inferred,omitempty"`
}

// CLIChildGroup holds the children shared with one co-parent. CoParent is
// empty for children with no recorded other parent.
type CLIChildGroup struct {
	CoParent string        `json:"co_parent,omitempty"`
	Children []CLIRelative `json:"children"`
}

// CLIPerson is a JSON-friendly resolved person.
type CLIPerson struct {
	URI      string          `json:"uri"`
	UniqueID string          `json:"unique_id"`
	Name     string          `json:"name"`
	Gender   string          `json:"gender,omitempty"`
	Given    []string        `json:"given,omitempty"`
	Last     []string        `json:"last,omitempty"`
	Birth    string          `json:"birth,omitempty"`
	Death    string          `json:"death,omitempty"`
	Father   *CLIRelative    `json:"father,omitempty"`
	Mother   *CLIRelative    `json:"mother,omitempty"`
	Partners []CLIPartner    `json:"partners"`
	Children []CLIChildGroup `json:"children"`
}

// CLIPersonResult pairs a person with the notes raised resolving them.
type CLIPersonResult struct {
	Person  CLIPerson      `json:"person"`
	Sources []string       `json:"sources"`
	Notes   []lineage.Note `json:"notes"`
}

// CLIPersonSummary is one row of `lineage persons`.
type CLIPersonSummary struct {
	URI      string `json:"uri"`
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
}

// CLIDeps lists the files one person depends on.
type CLIDeps struct {
	URI      string   `json:"uri"`
	UniqueID string   `json:"unique_id"`
	Files    []string `json:"files"`
}

// CLICheckResult holds every note from `lineage check` with counts per type.
type CLICheckResult struct {
	Notes    []lineage.Note `json:"notes"`
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	Infos    int            `json:"infos"`
}

func toCLIRelative(p *lineage.Person) *CLIRelative {
	if p == nil {
		return nil
	}
	return &CLIRelative{URI: p.Resource.URI(), Name: p.DisplayName()}
}

func toCLIPerson(p *lineage.Person) CLIPerson {
	out := CLIPerson{
		URI:      p.Resource.URI(),
		UniqueID: p.Resource.UniqueID(),
		Name:     p.DisplayName(),
		Gender:   string(p.Gender),
		Given:    p.Given,
		Last:     p.Last,
		Birth:    p.Birth,
		Death:    p.Death,
		Father:   toCLIRelative(p.Father),
		Mother:   toCLIRelative(p.Mother),
		Partners: make([]CLIPartner, 0, len(p.Partners)),
		Children: make([]CLIChildGroup, 0, len(p.Children)),
	}
	for _, partner := range p.Partners {
		out.Partners = append(out.Partners, CLIPartner{
			CLIRelative: *toCLIRelative(partner.Person),
			Inferred:    partner.Inferred,
		})
	}
	for _, group := range p.Children {
		g := CLIChildGroup{Children: make([]CLIRelative, 0, len(group.Children))}
		if group.CoParent != nil {
			g.CoParent = group.CoParent.URI()
		}
		for _, c := range group.Children {
			g.Children = append(g.Children, *toCLIRelative(c))
		}
		out.Children = append(out.Children, g)
	}
	return out
}
