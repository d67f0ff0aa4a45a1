package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/jward/lineage"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

// formatNotesText writes one line per note, coloured by severity.
func formatNotesText(w io.Writer, notes []lineage.Note) {
	for _, n := range notes {
		c := infoColor
		switch n.Type {
		case lineage.NoteError:
			c = errorColor
		case lineage.NoteWarning:
			c = warningColor
		}
		c.Fprintf(w, "%-7s", n.Type)
		fmt.Fprintf(w, " %s: %s\n", n.ID, n.Text)
	}
}

func relativeText(r *CLIRelative) string {
	if r == nil {
		return "-"
	}
	if r.Name == r.URI {
		return r.URI
	}
	return fmt.Sprintf("%s <%s>", r.Name, r.URI)
}

// formatPersonText formats a resolved person as readable text.
func formatPersonText(w io.Writer, res CLIPersonResult) {
	p := res.Person
	fmt.Fprintf(w, "Person: %s\n", p.Name)
	fmt.Fprintf(w, "URI: %s\n", p.URI)
	if p.Gender != "" {
		fmt.Fprintf(w, "Gender: %s\n", p.Gender)
	}
	if p.Birth != "" {
		fmt.Fprintf(w, "Born: %s\n", p.Birth)
	}
	if p.Death != "" {
		fmt.Fprintf(w, "Died: %s\n", p.Death)
	}
	fmt.Fprintf(w, "Father: %s\n", relativeText(p.Father))
	fmt.Fprintf(w, "Mother: %s\n", relativeText(p.Mother))

	if len(p.Partners) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Partners:")
		for _, partner := range p.Partners {
			suffix := ""
			if partner.Inferred {
				suffix = " (inferred)"
			}
			rel := partner.CLIRelative
			fmt.Fprintf(w, "  %s%s\n", relativeText(&rel), suffix)
		}
	}

	if len(p.Children) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Children:")
		for _, g := range p.Children {
			coParent := g.CoParent
			if coParent == "" {
				coParent = "unknown"
			}
			fmt.Fprintf(w, "  with %s:\n", coParent)
			for _, c := range g.Children {
				fmt.Fprintf(w, "    %s\n", relativeText(&c))
			}
		}
	}

	if len(res.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for _, src := range res.Sources {
			fmt.Fprintf(w, "  %s\n", src)
		}
	}

	if len(res.Notes) > 0 {
		fmt.Fprintln(w)
		formatNotesText(w, res.Notes)
	}
}

// formatPersonsText formats person summaries as aligned columns.
func formatPersonsText(w io.Writer, persons []CLIPersonSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, p := range persons {
		fmt.Fprintf(tw, "%s\t%s\n", p.UniqueID, p.Name)
	}
	tw.Flush()
}

// formatDepsText lists each person followed by their files.
func formatDepsText(w io.Writer, deps []CLIDeps) {
	for _, d := range deps {
		fmt.Fprintf(w, "%s\n", d.UniqueID)
		for _, f := range d.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}

// formatCheckText lists notes followed by a summary line.
func formatCheckText(w io.Writer, res CLICheckResult) {
	formatNotesText(w, res.Notes)
	summary := fmt.Sprintf("%d error(s), %d warning(s), %d info", res.Errors, res.Warnings, res.Infos)
	if res.Errors > 0 {
		errorColor.Fprintln(w, summary)
		return
	}
	color.New(color.FgGreen).Fprintln(w, summary)
}

// formatStatusText formats the store status.
func formatStatusText(w io.Writer, s *lineage.Status) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Files:\t%d\n", s.Files)
	fmt.Fprintf(tw, "Facts:\t%d\n", s.Triples)
	fmt.Fprintf(tw, "Persons:\t%d\n", s.Persons)
	if s.LastLoad != "" {
		fmt.Fprintf(tw, "Last load:\t%s\n", s.LastLoad)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIPersonResult:
		formatPersonText(w, v)
	case []CLIPersonSummary:
		formatPersonsText(w, v)
	case []CLIDeps:
		formatDepsText(w, v)
	case CLICheckResult:
		formatCheckText(w, v)
	case *lineage.Status:
		formatStatusText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}
