package models

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
	"github.com/Cytomine-ULiege/cytomine-go-client/transfer"
)

// ImageInstance is the use of an uploaded image inside a project.
type ImageInstance struct {
	Model
}

// NewImageInstance creates the use of an uploaded image in a project. Zero
// ids are left unset.
func NewImageInstance(baseImageID, projectID int64) *ImageInstance {
	i := &ImageInstance{Model: newModel("imageinstance")}
	if baseImageID != 0 {
		i.attrs.Set("baseImage", baseImageID)
	}
	if projectID != 0 {
		i.attrs.Set("project", projectID)
	}
	return i
}

// BaseImageID returns the uploaded image backing the instance.
func (i *ImageInstance) BaseImageID() (int64, bool) { return i.attrs.Int64("baseImage") }

// ProjectID returns the project the instance belongs to.
func (i *ImageInstance) ProjectID() (int64, bool) { return i.attrs.Int64("project") }

// Width returns the pixel width of the image.
func (i *ImageInstance) Width() int64 {
	width, _ := i.attrs.Int64("width")
	return width
}

// Height returns the pixel height of the image.
func (i *ImageInstance) Height() int64 {
	height, _ := i.attrs.Int64("height")
	return height
}

// Resolution returns the pixel resolution of the image in micrometers.
func (i *ImageInstance) Resolution() float64 {
	resolution, _ := i.attrs.Float64("resolution")
	return resolution
}

// Magnification returns the objective magnification of the acquisition.
func (i *ImageInstance) Magnification() int64 {
	magnification, _ := i.attrs.Int64("magnification")
	return magnification
}

// OriginalFilename returns the filename the image was uploaded under.
func (i *ImageInstance) OriginalFilename() string {
	name, _ := i.attrs.String("originalFilename")
	return name
}

// InstanceFilename returns the filename of the instance inside the project.
func (i *ImageInstance) InstanceFilename() string {
	name, _ := i.attrs.String("instanceFilename")
	return name
}

// SetInstanceFilename renames the instance inside the project.
func (i *ImageInstance) SetInstanceFilename(name string) { i.attrs.Set("instanceFilename", name) }

// NumberOfAnnotations returns the annotation count the server reported for
// the image.
func (i *ImageInstance) NumberOfAnnotations() int64 {
	n, _ := i.attrs.Int64("numberOfAnnotations")
	return n
}

// PreviewURL returns the service URL of the image preview.
func (i *ImageInstance) PreviewURL() string {
	u, _ := i.attrs.String("preview")
	return u
}

// Download retrieves the original image file into the destinations produced
// by destPattern. "{attr}" placeholders in the pattern are resolved against
// the image attributes. With parent set the upstream parent file is
// retrieved instead of the converted one. The produced paths are recorded
// on the image and returned.
func (i *ImageInstance) Download(ctx context.Context, tr Transferer, destPattern string, override, parent bool) ([]string, error) {
	if !i.Persisted() {
		return nil, errors.NewError("download",
			fmt.Errorf("%w: image instance has no id", errors.ErrMissingIdentifier))
	}
	destinations, err := transfer.ResolvePattern(destPattern, i.attrs.Snapshot())
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("imageinstance/%d/download", i.ID())
	q := url.Values{}
	q.Set("parent", strconv.FormatBool(parent))

	files := make([]string, 0, len(destinations))
	for _, dest := range destinations {
		if err := tr.DownloadFile(ctx, path, dest, override, q); err != nil {
			return files, errors.NewPathError("download", path, err)
		}
		files = append(files, dest)
	}
	if len(files) > 0 {
		i.attrs.Set("filenames", files)
		i.attrs.Set("filename", files[0])
	}
	return files, nil
}

// Dump downloads a rendered view of the image into the destinations
// produced by destPattern, bounded by the configured maximum size. Without
// WithMaxSize the largest image dimension is used, returning the full
// image. The extension of each destination must be jpg, png or tif;
// anything else falls back to jpg. The produced paths are recorded on the
// image and returned.
func (i *ImageInstance) Dump(ctx context.Context, tr Transferer, destPattern string, opts ...DumpOption) ([]string, error) {
	if !i.Persisted() {
		return nil, errors.NewError("dump",
			fmt.Errorf("%w: image instance has no id", errors.ErrMissingIdentifier))
	}
	preview := i.PreviewURL()
	if preview == "" {
		return nil, errors.NewError("dump",
			fmt.Errorf("image instance %d carries no preview URL", i.ID()))
	}

	cfg := newDumpConfig(opts)
	maxSize := cfg.maxSize
	if maxSize == nil {
		largest := max(i.Width(), i.Height())
		maxSize = &largest
	}
	q := url.Values{}
	setIntParam(q, "maxSize", maxSize)
	setFloatParam(q, "contrast", cfg.contrast)
	setFloatParam(q, "gamma", cfg.gamma)
	setIntParam(q, "colormap", cfg.colormap)
	setBoolParam(q, "inverse", cfg.inverse)
	q.Set("bits", cfg.bits)

	base := preview
	if idx := strings.Index(base, "?"); idx >= 0 {
		base = base[:idx]
	}
	urlFor := func(ext string) (string, string) {
		return strings.ReplaceAll(base, ".png", "."+ext), ext
	}
	return dumpImage(ctx, tr, &i.Model, destPattern, cfg.override, q, urlFor)
}

// String formats the image instance for diagnostics.
func (i *ImageInstance) String() string {
	return fmt.Sprintf("[%s] %d : %s", i.Kind(), i.ID(), i.InstanceFilename())
}

// AbstractImage is an image deployed on the server, independent of the
// projects using it.
type AbstractImage struct {
	Model
}

// NewAbstractImage creates an empty abstract image record.
func NewAbstractImage() *AbstractImage {
	return &AbstractImage{Model: newModel("abstractimage")}
}

// OriginalFilename returns the filename the image was uploaded under.
func (a *AbstractImage) OriginalFilename() string {
	name, _ := a.attrs.String("originalFilename")
	return name
}

// Width returns the pixel width of the image.
func (a *AbstractImage) Width() int64 {
	width, _ := a.attrs.Int64("width")
	return width
}

// Height returns the pixel height of the image.
func (a *AbstractImage) Height() int64 {
	height, _ := a.attrs.Int64("height")
	return height
}

// String formats the abstract image for diagnostics.
func (a *AbstractImage) String() string {
	return fmt.Sprintf("[%s] %d : %s", a.Kind(), a.ID(), a.OriginalFilename())
}

// ImageInstanceCollection lists the image instances of a project.
type ImageInstanceCollection struct {
	Collection
	Items []*ImageInstance
}

// NewImageInstanceCollection creates an image instance listing. The listing
// requires a project, user or imagegroup filter.
func NewImageInstanceCollection() *ImageInstanceCollection {
	return &ImageInstanceCollection{
		Collection: newCollection("imageinstance", false, "project", "user", "imagegroup"),
	}
}

// Fetch retrieves the image instances matching the applied filter, bounded
// by the Max and Offset window.
func (c *ImageInstanceCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *ImageInstance {
		return NewImageInstance(0, 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// FetchAll pages through the whole listing with the given page size.
func (c *ImageInstanceCollection) FetchAll(ctx context.Context, api Caller, pageSize int64) error {
	items, err := fetchAllItems(ctx, api, &c.Collection, c.Path(), nil, pageSize, func() *ImageInstance {
		return NewImageInstance(0, 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// Save is rejected: image instances are attached to projects one by one.
func (c *ImageInstanceCollection) Save(ctx context.Context, api Caller) error {
	return errors.NewError("save", errors.ErrNotSupported)
}
