package models

import (
	"context"
)

// Project groups the images, annotations and members of one study under a
// shared ontology.
type Project struct {
	Model
}

// NewProject creates a project bound to an ontology. Empty fields are left
// unset.
func NewProject(name string, ontologyID int64) *Project {
	p := &Project{Model: newModel("project")}
	if name != "" {
		p.attrs.Set("name", name)
	}
	if ontologyID != 0 {
		p.attrs.Set("ontology", ontologyID)
	}
	return p
}

// OntologyID returns the ontology the project terms come from.
func (p *Project) OntologyID() (int64, bool) { return p.attrs.Int64("ontology") }

// SetOntologyID rebinds the project to another ontology.
func (p *Project) SetOntologyID(id int64) { p.attrs.Set("ontology", id) }

// NumberOfImages returns the image count the server reported for the
// project.
func (p *Project) NumberOfImages() int64 {
	n, _ := p.attrs.Int64("numberOfImages")
	return n
}

// NumberOfAnnotations returns the annotation count the server reported for
// the project.
func (p *Project) NumberOfAnnotations() int64 {
	n, _ := p.attrs.Int64("numberOfAnnotations")
	return n
}

// ProjectCollection lists projects, optionally restricted to a user or an
// ontology.
type ProjectCollection struct {
	Collection
	Items []*Project
}

// NewProjectCollection creates a project listing.
func NewProjectCollection() *ProjectCollection {
	return &ProjectCollection{Collection: newCollection("project", true, "user", "ontology")}
}

// Fetch retrieves the projects matching the applied filter, bounded by the
// Max and Offset window.
func (c *ProjectCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *Project {
		return NewProject("", 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// FetchAll pages through the whole listing with the given page size.
func (c *ProjectCollection) FetchAll(ctx context.Context, api Caller, pageSize int64) error {
	items, err := fetchAllItems(ctx, api, &c.Collection, c.Path(), nil, pageSize, func() *Project {
		return NewProject("", 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}
