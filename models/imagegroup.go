package models

import (
	"context"
	"fmt"
)

// ImageGroup bundles image instances of a project that picture the same
// sample, for example the channels of a multispectral acquisition.
type ImageGroup struct {
	Model
}

// NewImageGroup creates an image group in the given project. A zero
// project id is left unset.
func NewImageGroup(name string, projectID int64) *ImageGroup {
	g := &ImageGroup{Model: newModel("imagegroup")}
	if name != "" {
		g.attrs.Set("name", name)
	}
	if projectID != 0 {
		g.attrs.Set("project", projectID)
	}
	return g
}

// ProjectID returns the project the image group belongs to.
func (g *ImageGroup) ProjectID() (int64, bool) { return g.attrs.Int64("project") }

// ImageGroupCollection lists the image groups of a project.
type ImageGroupCollection struct {
	Collection
	Items []*ImageGroup
}

// NewImageGroupCollection creates an image group listing. The listing
// requires a project filter.
func NewImageGroupCollection() *ImageGroupCollection {
	return &ImageGroupCollection{Collection: newCollection("imagegroup", false, "project")}
}

// Fetch retrieves the image groups of the filtered project.
func (c *ImageGroupCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *ImageGroup {
		return NewImageGroup("", 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// ImageGroupImageInstance attaches an image instance to an image group.
// The relation is created and deleted but never updated.
type ImageGroupImageInstance struct {
	Model
}

// NewImageGroupImageInstance creates the attachment between an image group
// and an image instance. Zero ids are left unset.
func NewImageGroupImageInstance(groupID, imageID int64) *ImageGroupImageInstance {
	r := &ImageGroupImageInstance{Model: newCompositeModel("imagegroupimageinstance",
		"imagegroup/{group}/imageinstance/{image}.json",
		"imagegroup/{group}/imageinstance/{image}.json")}
	if groupID != 0 {
		r.attrs.Set("group", groupID)
	}
	if imageID != 0 {
		r.attrs.Set("image", imageID)
	}
	return r
}

// GroupID returns the image group side of the attachment.
func (r *ImageGroupImageInstance) GroupID() (int64, bool) { return r.attrs.Int64("group") }

// ImageID returns the image instance side of the attachment.
func (r *ImageGroupImageInstance) ImageID() (int64, bool) { return r.attrs.Int64("image") }

// String formats the attachment for diagnostics.
func (r *ImageGroupImageInstance) String() string {
	group, _ := r.GroupID()
	image, _ := r.ImageID()
	return fmt.Sprintf("[%s] group %d - image %d", r.Kind(), group, image)
}

// ImageGroupImageInstanceCollection lists the attachments of an image
// group or an image instance.
type ImageGroupImageInstanceCollection struct {
	Collection
	Items []*ImageGroupImageInstance
}

// NewImageGroupImageInstanceCollection creates an attachment listing. The
// listing requires an imagegroup or imageinstance filter.
func NewImageGroupImageInstanceCollection() *ImageGroupImageInstanceCollection {
	return &ImageGroupImageInstanceCollection{
		Collection: newCollection("imagegroupimageinstance", false, "imagegroup", "imageinstance"),
	}
}

// Fetch retrieves the attachments matching the applied filter.
func (c *ImageGroupImageInstanceCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *ImageGroupImageInstance {
		return NewImageGroupImageInstance(0, 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}
