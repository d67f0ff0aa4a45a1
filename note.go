package lineage

import (
	"encoding/json"
	"fmt"

	"github.com/jward/lineage/internal/fault"
)

// NoteType is the severity of a Note.
type NoteType int

const (
	NoteInfo NoteType = iota
	NoteWarning
	NoteError
)

func (t NoteType) name() (string, bool) {
	switch t {
	case NoteInfo:
		return "info", true
	case NoteWarning:
		return "warning", true
	case NoteError:
		return "error", true
	}
	return "", false
}

func (t NoteType) String() string {
	if s, ok := t.name(); ok {
		return s
	}
	return fmt.Sprintf("NoteType(%d)", int(t))
}

// ParseNoteType maps "info", "warning" or "error" (any case of the first
// letter) to a NoteType.
func ParseNoteType(s string) (NoteType, error) {
	switch s {
	case "info", "Info":
		return NoteInfo, nil
	case "warning", "Warning":
		return NoteWarning, nil
	case "error", "Error":
		return NoteError, nil
	}
	return 0, fault.New(fault.InputContract, "unknown note type %q", s)
}

// Note template identifiers raised by the resolvers.
const (
	NoteMultipleFathers = "MULTIPLE_FATHERS"
	NoteMultipleMothers = "MULTIPLE_MOTHERS"
	NoteInferredPartner = "INFERRED_PARTNER"
)

// MaxVariableDepth bounds Variable nesting during rendering.
const MaxVariableDepth = 30

// Variable is a typed value filling a slot of a Note template. The set of
// implementations is closed: Integer, String, ResourceRef and Sequence.
type Variable interface {
	isVariable()
}

type Integer int64

type String string

type ResourceRef Resource

// Sequence is an ordered list of variables; it may nest.
type Sequence []Variable

func (Integer) isVariable()     {}
func (String) isVariable()      {}
func (ResourceRef) isVariable() {}
func (Sequence) isVariable()    {}

// ResourceSequence wraps each resource as a ResourceRef.
func ResourceSequence(rs []Resource) Sequence {
	seq := make(Sequence, len(rs))
	for i, r := range rs {
		seq[i] = ResourceRef(r)
	}
	return seq
}

// Note is a non-fatal anomaly found during resolution. Text is rendered when
// the note is created and is not rebuilt from Vars.
type Note struct {
	Type NoteType
	ID   string
	Vars map[string]Variable
	Text string
}

func NewNote(t NoteType, id, text string, vars map[string]Variable) Note {
	return Note{Type: t, ID: id, Vars: vars, Text: text}
}

func (n Note) String() string {
	return fmt.Sprintf("%s %s: %s", n.Type, n.ID, n.Text)
}

// Render converts the note into a JSON-ready tree. It fails with an
// InternalContractError on an invalid type, an unknown variable shape, or
// nesting beyond MaxVariableDepth.
func (n Note) Render() (map[string]any, error) {
	typ, ok := n.Type.name()
	if !ok {
		return nil, fault.New(fault.InternalContract, "note %s has invalid type %d", n.ID, int(n.Type))
	}
	vars := make(map[string]any, len(n.Vars))
	for name, v := range n.Vars {
		rv, err := renderVariable(v, 1)
		if err != nil {
			return nil, fmt.Errorf("note %s: variable %s: %w", n.ID, name, err)
		}
		vars[name] = rv
	}
	return map[string]any{
		"type": typ,
		"id":   n.ID,
		"text": n.Text,
		"vars": vars,
	}, nil
}

func renderVariable(v Variable, depth int) (map[string]any, error) {
	if depth > MaxVariableDepth {
		return nil, fault.New(fault.InternalContract, "variable nesting exceeds %d", MaxVariableDepth)
	}
	switch x := v.(type) {
	case Integer:
		return map[string]any{"type": "integer", "value": int64(x)}, nil
	case String:
		return map[string]any{"type": "string", "value": string(x)}, nil
	case ResourceRef:
		return map[string]any{"type": "resource", "value": Resource(x).URI()}, nil
	case Sequence:
		items := make([]any, 0, len(x))
		for _, item := range x {
			ri, err := renderVariable(item, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, ri)
		}
		return map[string]any{"type": "sequence", "value": items}, nil
	}
	return nil, fault.New(fault.InternalContract, "unrecognised variable %T", v)
}

func (n Note) MarshalJSON() ([]byte, error) {
	tree, err := n.Render()
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// NoteList accumulates notes across resolution calls. Notes are only ever
// appended.
type NoteList []Note

func (l *NoteList) Add(n Note) {
	*l = append(*l, n)
}

// WithID returns the notes whose ID is id.
func (l NoteList) WithID(id string) []Note {
	var out []Note
	for _, n := range l {
		if n.ID == id {
			out = append(out, n)
		}
	}
	return out
}

// Count returns the number of notes of type t.
func (l NoteList) Count(t NoteType) int {
	c := 0
	for _, n := range l {
		if n.Type == t {
			c++
		}
	}
	return c
}
