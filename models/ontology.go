package models

import (
	"context"
	"fmt"
)

// Ontology is a tree of terms describing what annotations can represent.
type Ontology struct {
	Model
}

// NewOntology creates an ontology with the given name.
func NewOntology(name string) *Ontology {
	o := &Ontology{Model: newModel("ontology")}
	if name != "" {
		o.SetName(name)
	}
	return o
}

// OntologyCollection lists the ontologies visible to the current user.
type OntologyCollection struct {
	Collection
	Items []*Ontology
}

// NewOntologyCollection creates an ontology listing.
func NewOntologyCollection() *OntologyCollection {
	return &OntologyCollection{Collection: newCollection("ontology", true)}
}

// Fetch retrieves the ontologies.
func (c *OntologyCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *Ontology {
		return NewOntology("")
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// Term is a label of an ontology, usable to annotate regions of interest.
type Term struct {
	Model
}

// NewTerm creates a term of an ontology. The color is the display color of
// the term's annotations, as a "#rrggbb" string. Zero values are left
// unset.
func NewTerm(name string, ontologyID int64, color string) *Term {
	t := &Term{Model: newModel("term")}
	if name != "" {
		t.SetName(name)
	}
	if ontologyID != 0 {
		t.attrs.Set("ontology", ontologyID)
	}
	if color != "" {
		t.attrs.Set("color", color)
	}
	return t
}

// OntologyID returns the ontology the term belongs to.
func (t *Term) OntologyID() (int64, bool) { return t.attrs.Int64("ontology") }

// ParentID returns the parent term in the ontology tree.
func (t *Term) ParentID() (int64, bool) { return t.attrs.Int64("parent") }

// SetParentID sets the parent term in the ontology tree.
func (t *Term) SetParentID(id int64) { t.attrs.Set("parent", id) }

// Color returns the display color of the term.
func (t *Term) Color() string {
	color, _ := t.attrs.String("color")
	return color
}

// TermCollection lists terms by project, ontology or annotation.
type TermCollection struct {
	Collection
	Items []*Term
}

// NewTermCollection creates a term listing.
func NewTermCollection() *TermCollection {
	return &TermCollection{
		Collection: newCollection("term", true, "project", "ontology", "annotation"),
	}
}

// Fetch retrieves the terms matching the applied filter.
func (c *TermCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *Term {
		return NewTerm("", 0, "")
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// FetchAll pages through the whole listing with the given page size.
func (c *TermCollection) FetchAll(ctx context.Context, api Caller, pageSize int64) error {
	items, err := fetchAllItems(ctx, api, &c.Collection, c.Path(), nil, pageSize, func() *Term {
		return NewTerm("", 0, "")
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// RelationTerm is the parent relation between two terms of an ontology.
// The relation is created against a fixed relation path and addressed by
// both term ids once persisted; it is never updated.
type RelationTerm struct {
	Model
}

// NewRelationTerm creates the parent relation between two terms. Zero ids
// are left unset.
func NewRelationTerm(parentID, childID int64) *RelationTerm {
	r := &RelationTerm{Model: newCompositeModel("relationterm",
		"relation/parent/term.json",
		"relation/parent/term1/{term1}/term2/{term2}.json")}
	if parentID != 0 {
		r.attrs.Set("term1", parentID)
	}
	if childID != 0 {
		r.attrs.Set("term2", childID)
	}
	return r
}

// ParentID returns the parent side of the relation.
func (r *RelationTerm) ParentID() (int64, bool) { return r.attrs.Int64("term1") }

// ChildID returns the child side of the relation.
func (r *RelationTerm) ChildID() (int64, bool) { return r.attrs.Int64("term2") }

// String formats the relation for diagnostics.
func (r *RelationTerm) String() string {
	parent, _ := r.ParentID()
	child, _ := r.ChildID()
	return fmt.Sprintf("[%s] %d : parent %d - child %d", r.Kind(), r.ID(), parent, child)
}
