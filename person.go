package lineage

import (
	"slices"
	"strings"
)

// Gender of a person. The empty value means no gender fact was found.
type Gender string

const (
	GenderAbsent  Gender = ""
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
	GenderInvalid Gender = "invalid"
)

// Person is the resolved record of one individual. Related persons are
// referenced by pointer; cycles between them are normal.
type Person struct {
	Resource Resource
	Gender   Gender
	Given    []string
	Last     []string
	Birth    string
	Death    string

	Father   *Person
	Mother   *Person
	Partners []Partner
	Children []ChildGroup
}

// Partner is a partner of a person. Inferred is set when the partnership is
// only implied by a shared child.
type Partner struct {
	Person   *Person
	Inferred bool
}

// ChildGroup holds the children a person has with one co-parent. A nil
// CoParent means the other parent is unknown.
type ChildGroup struct {
	CoParent *Resource
	Children []*Person
}

func newPerson(r Resource) *Person {
	return &Person{Resource: r}
}

// DisplayName joins given names and surnames. It falls back to the resource
// URI when the person has no name parts.
func (p *Person) DisplayName() string {
	parts := append(slices.Clone(p.Given), p.Last...)
	if len(parts) == 0 {
		return p.Resource.URI()
	}
	return strings.Join(parts, " ")
}

func (p *Person) hasName() bool {
	return len(p.Given) > 0 || len(p.Last) > 0
}

// Equal compares scalar fields and the identities of related persons. It never
// recurses into related persons.
func (p *Person) Equal(o *Person) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Resource != o.Resource || p.Gender != o.Gender || p.Birth != o.Birth || p.Death != o.Death {
		return false
	}
	if !slices.Equal(p.Given, o.Given) || !slices.Equal(p.Last, o.Last) {
		return false
	}
	if !sameIdentity(p.Father, o.Father) || !sameIdentity(p.Mother, o.Mother) {
		return false
	}
	if !slices.EqualFunc(p.Partners, o.Partners, func(a, b Partner) bool {
		return a.Inferred == b.Inferred && sameIdentity(a.Person, b.Person)
	}) {
		return false
	}
	return slices.EqualFunc(p.Children, o.Children, func(a, b ChildGroup) bool {
		if (a.CoParent == nil) != (b.CoParent == nil) {
			return false
		}
		if a.CoParent != nil && *a.CoParent != *b.CoParent {
			return false
		}
		return slices.EqualFunc(a.Children, b.Children, sameIdentity)
	})
}

func sameIdentity(a, b *Person) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Resource == b.Resource
}
