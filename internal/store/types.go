package store

import (
	"fmt"
	"time"
)

type File struct {
	ID          int64
	Path        string
	Hash        string
	TripleCount int
	LastLoaded  time.Time
}

// TermKind distinguishes the three shapes a graph value can take.
type TermKind byte

const (
	TermIRI     TermKind = 'I'
	TermBlank   TermKind = 'B'
	TermLiteral TermKind = 'L'
)

func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermBlank:
		return "blank"
	case TermLiteral:
		return "literal"
	}
	return fmt.Sprintf("TermKind(%d)", byte(k))
}

// Term is a graph value: a resource IRI, an anonymous (blank) node, or a
// literal's lexical form. Literal datatypes and language tags are dropped on
// load.
type Term struct {
	Kind  TermKind
	Value string
}

func IRI(iri string) Term      { return Term{Kind: TermIRI, Value: iri} }
func Blank(id string) Term     { return Term{Kind: TermBlank, Value: id} }
func Literal(lex string) Term  { return Term{Kind: TermLiteral, Value: lex} }
func (t Term) IsIRI() bool     { return t.Kind == TermIRI }
func (t Term) IsBlank() bool   { return t.Kind == TermBlank }
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

func (t Term) String() string {
	switch t.Kind {
	case TermIRI:
		return "<" + t.Value + ">"
	case TermBlank:
		return "_:" + t.Value
	}
	return fmt.Sprintf("%q", t.Value)
}

// encode returns the column representation of t.
func (t Term) encode() string {
	return string(rune(t.Kind)) + t.Value
}

func decodeTerm(s string) (Term, error) {
	if s == "" {
		return Term{}, fmt.Errorf("empty term")
	}
	k := TermKind(s[0])
	switch k {
	case TermIRI, TermBlank, TermLiteral:
		return Term{Kind: k, Value: s[1:]}, nil
	}
	return Term{}, fmt.Errorf("unknown term kind %q", s[0])
}

// Triple is one stored fact.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}
