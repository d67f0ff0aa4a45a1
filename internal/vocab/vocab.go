// Package vocab holds the IRIs of the GEDCOM-X flavoured fact vocabulary the
// resolvers query against.
package vocab

// Namespaces.
const (
	RDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSD = "http://www.w3.org/2001/XMLSchema#"
	GX  = "http://gedcomx.org/"
)

// Type is rdf:type.
const Type = RDF + "type"

// Classes.
const (
	Person       = GX + "Person"
	Relationship = GX + "Relationship"
)

// Relationship facts. For ParentChild, Person1 is the parent and Person2 the
// child. Couple relationships are unordered.
const (
	RelationshipType = GX + "type"
	ParentChild      = GX + "ParentChild"
	Couple           = GX + "Couple"
	Person1          = GX + "person1"
	Person2          = GX + "person2"
)

// Names: person -name-> name node -part-> part node -type/value->.
const (
	Name      = GX + "name"
	Preferred = GX + "preferred"
	NameType  = GX + "type"
	BirthName = GX + "BirthName"
	NamePart  = GX + "part"
	PartType  = GX + "type"
	PartValue = GX + "value"
	Given     = GX + "Given"
	Surname   = GX + "Surname"
)

// Gender and vital dates.
const (
	Gender        = GX + "gender"
	Male          = GX + "Male"
	Female        = GX + "Female"
	UnknownGender = GX + "Unknown"
	BirthDate     = GX + "birthDate"
	DeathDate     = GX + "deathDate"
)

// True is the lexical form the preferred flag is matched against.
const True = "true"
