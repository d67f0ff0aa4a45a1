package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knakk/rdf"

	"github.com/jward/lineage/internal/fault"
)

// ContentHash returns the hex sha256 of a source file's bytes.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// LoadFile loads a Turtle file, replacing any facts previously loaded from
// the same path. Files whose content hash matches the stored record are
// skipped; the returned bool reports whether the file was (re)loaded.
func (s *Store) LoadFile(ctx context.Context, path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}
	hash := ContentHash(content)

	existing, err := s.FileByPath(ctx, path)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.Hash == hash {
		return false, nil
	}

	triples, err := ParseTurtle(path, bytes.NewReader(content))
	if err != nil {
		return false, err
	}
	if err := s.replaceFile(ctx, path, hash, triples); err != nil {
		return false, err
	}
	return true, nil
}

// LoadReader parses Turtle from r and stores its facts under path,
// unconditionally replacing earlier facts from the same path. It returns the
// number of triples stored.
func (s *Store) LoadReader(ctx context.Context, path string, r io.Reader) (int, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	triples, err := ParseTurtle(path, bytes.NewReader(content))
	if err != nil {
		return 0, err
	}
	if err := s.replaceFile(ctx, path, ContentHash(content), triples); err != nil {
		return 0, err
	}
	return len(triples), nil
}

// ParseTurtle decodes every triple in r. Blank node labels are scoped to
// path so anonymous nodes from different files never merge.
func ParseTurtle(path string, r io.Reader) ([]Triple, error) {
	dec := rdf.NewTripleDecoder(r, rdf.Turtle)
	var triples []Triple
	for {
		tr, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fault.Wrap(fault.DataFormat, err, "parse %s", path)
		}
		subj, err := convertTerm(tr.Subj, path)
		if err != nil {
			return nil, err
		}
		pred, err := convertTerm(tr.Pred, path)
		if err != nil {
			return nil, err
		}
		obj, err := convertTerm(tr.Obj, path)
		if err != nil {
			return nil, err
		}
		triples = append(triples, Triple{Subject: subj, Predicate: pred, Object: obj})
	}
	return triples, nil
}

func convertTerm(t rdf.Term, scope string) (Term, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return IRI(v.String()), nil
	case rdf.Blank:
		return Blank(scope + "#" + strings.TrimPrefix(v.String(), "_:")), nil
	case rdf.Literal:
		return Literal(v.String()), nil
	}
	return Term{}, fault.New(fault.DataFormat, "%s: unsupported term %v", scope, t)
}

// replaceFile swaps the facts stored for path in one transaction.
func (s *Store) replaceFile(ctx context.Context, path, hash string, triples []Triple) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete old file: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO files (path, hash, triple_count, last_loaded) VALUES (?, ?, ?, ?)",
		path, hash, len(triples), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO triples (file_id, subject, predicate, object) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("prepare triple insert: %w", err)
	}
	defer stmt.Close()
	for _, t := range triples {
		if _, err := stmt.ExecContext(ctx, fileID, t.Subject.encode(), t.Predicate.encode(), t.Object.encode()); err != nil {
			return fmt.Errorf("insert triple: %w", err)
		}
	}
	return tx.Commit()
}

// InsertTriples stores triples under path without parsing. Used by callers
// that build graphs programmatically.
func (s *Store) InsertTriples(ctx context.Context, path string, triples []Triple) error {
	return s.replaceFile(ctx, path, "", triples)
}
