package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/lineage/internal/fault"
)

// MaxValueDepth bounds the nesting of list values passed to note().
const MaxValueDepth = 30

// Host is the graph a check script runs against.
type Host interface {
	// Persons returns the URIs of every person, sorted.
	Persons(ctx context.Context) ([]string, error)

	// Describe returns the resolved record of one person. A
	// fault.ResourceNotFound error makes the script see nil.
	Describe(ctx context.Context, uri string) (*Record, error)

	// Note records a finding.
	Note(ctx context.Context, n Note) error
}

// Record is the flattened view of a person handed to scripts. Related
// persons are given by URI. Years are 0 when the date has no
// recognisable year.
type Record struct {
	URI       string
	UniqueID  string
	Gender    string
	Given     []string
	Last      []string
	Birth     string
	Death     string
	BirthYear int
	DeathYear int
	Father    string
	Mother    string
	Partners  []string
	Children  []string
}

// Note is a finding raised by a script. Vars values are int64, string, Ref
// or []any of those.
type Note struct {
	Type string
	ID   string
	Text string
	Vars map[string]any
}

// Ref marks a value as a resource reference.
type Ref struct {
	URI string
}

// makePersonsFn creates the "persons" host function.
//
// persons() → []string
func makePersonsFn(h Host) *object.Builtin {
	return object.NewBuiltin("persons", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("persons", 0, len(args))
		}
		uris, err := h.Persons(ctx)
		if err != nil {
			return object.Errorf("persons: %v", err)
		}
		return stringList(uris)
	})
}

// makeDescribeFn creates the "describe" host function.
//
// describe(uri) → map | nil
func makeDescribeFn(h Host) *object.Builtin {
	return object.NewBuiltin("describe", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("describe", 1, len(args))
		}
		uri, err := toString(args[0])
		if err != nil {
			return object.Errorf("describe: uri: %v", err)
		}
		rec, err := h.Describe(ctx, uri)
		if fault.CodeOf(err) == fault.ResourceNotFound {
			return object.Nil
		}
		if err != nil {
			return object.Errorf("describe: %v", err)
		}
		return recordToMap(rec)
	})
}

// makeNoteFn creates the "note" host function.
//
// note(type, id, text, vars) → nil
func makeNoteFn(h Host) *object.Builtin {
	return object.NewBuiltin("note", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 4 {
			return object.NewArgsError("note", 4, len(args))
		}
		var strs [3]string
		for i := range strs {
			s, err := toString(args[i])
			if err != nil {
				return object.Errorf("note: argument %d: %v", i+1, err)
			}
			strs[i] = s
		}
		m, err := extractMap(args[3])
		if err != nil {
			return object.Errorf("note: vars: %v", err)
		}
		vars := make(map[string]any, len(m))
		for name, obj := range m {
			val, err := toValue(obj, 1)
			if err != nil {
				return object.Errorf("note: var %s: %v", name, err)
			}
			vars[name] = val
		}
		if err := h.Note(ctx, Note{Type: strs[0], ID: strs[1], Text: strs[2], Vars: vars}); err != nil {
			return object.Errorf("note: %v", err)
		}
		return object.Nil
	})
}

// makeResourceFn creates "resource", which marks a URI string as a
// resource reference for note().
//
// resource(uri) → Ref
func makeResourceFn() *object.Builtin {
	return object.NewBuiltin("resource", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("resource", 1, len(args))
		}
		uri, err := toString(args[0])
		if err != nil {
			return object.Errorf("resource: %v", err)
		}
		p, err := object.NewProxy(&Ref{URI: uri})
		if err != nil {
			return object.Errorf("resource: proxy error: %v", err)
		}
		return p
	})
}

// toValue converts a Risor object into a note variable value.
func toValue(obj object.Object, depth int) (any, error) {
	if depth > MaxValueDepth {
		return nil, fmt.Errorf("nesting exceeds %d", MaxValueDepth)
	}
	switch v := obj.(type) {
	case *object.Int:
		return v.Value(), nil
	case *object.String:
		return v.Value(), nil
	case *object.List:
		items := v.Value()
		out := make([]any, 0, len(items))
		for _, item := range items {
			val, err := toValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case *object.Proxy:
		if ref, ok := v.Interface().(*Ref); ok {
			return *ref, nil
		}
		return nil, fmt.Errorf("unsupported proxy %T", v.Interface())
	}
	return nil, fmt.Errorf("unsupported value of type %s", obj.Type())
}

func recordToMap(rec *Record) object.Object {
	return object.NewMap(map[string]object.Object{
		"uri":        object.NewString(rec.URI),
		"unique_id":  object.NewString(rec.UniqueID),
		"gender":     object.NewString(rec.Gender),
		"given":      stringList(rec.Given),
		"last":       stringList(rec.Last),
		"birth":      object.NewString(rec.Birth),
		"death":      object.NewString(rec.Death),
		"birth_year": object.NewInt(int64(rec.BirthYear)),
		"death_year": object.NewInt(int64(rec.DeathYear)),
		"father":     object.NewString(rec.Father),
		"mother":     object.NewString(rec.Mother),
		"partners":   stringList(rec.Partners),
		"children":   stringList(rec.Children),
	})
}

func stringList(ss []string) object.Object {
	items := make([]object.Object, len(ss))
	for i, s := range ss {
		items[i] = object.NewString(s)
	}
	return object.NewList(items)
}

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	log *zap.Logger
}

func (l *logObject) Info(msg string) {
	l.log.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.log.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.log.Error(msg)
}
