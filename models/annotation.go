package models

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
	"github.com/Cytomine-ULiege/cytomine-go-client/transfer"
)

// Annotation is a user-drawn region of interest on an image, carried as a
// WKT geometry.
type Annotation struct {
	Model
}

// NewAnnotation creates an empty annotation.
func NewAnnotation() *Annotation {
	return &Annotation{Model: newModel("annotation")}
}

// Location returns the WKT geometry of the annotation.
func (a *Annotation) Location() string {
	location, _ := a.attrs.String("location")
	return location
}

// SetLocation sets the WKT geometry of the annotation.
func (a *Annotation) SetLocation(wkt string) { a.attrs.Set("location", wkt) }

// ImageID returns the image instance the annotation belongs to.
func (a *Annotation) ImageID() (int64, bool) { return a.attrs.Int64("image") }

// SetImageID sets the image instance the annotation belongs to.
func (a *Annotation) SetImageID(id int64) { a.attrs.Set("image", id) }

// SliceID returns the slice the annotation belongs to.
func (a *Annotation) SliceID() (int64, bool) { return a.attrs.Int64("slice") }

// SetSliceID sets the slice the annotation belongs to.
func (a *Annotation) SetSliceID(id int64) { a.attrs.Set("slice", id) }

// ProjectID returns the project the annotation belongs to.
func (a *Annotation) ProjectID() (int64, bool) { return a.attrs.Int64("project") }

// SetProjectID sets the project the annotation belongs to.
func (a *Annotation) SetProjectID(id int64) { a.attrs.Set("project", id) }

// TermIDs returns the terms associated with the annotation.
func (a *Annotation) TermIDs() []int64 {
	ids, _ := a.attrs.Int64s("term")
	return ids
}

// SetTermIDs sets the terms associated with the annotation.
func (a *Annotation) SetTermIDs(ids []int64) { a.attrs.Set("term", ids) }

// TrackIDs returns the tracks the annotation belongs to.
func (a *Annotation) TrackIDs() []int64 {
	ids, _ := a.attrs.Int64s("track")
	return ids
}

// SetTrackIDs sets the tracks the annotation belongs to.
func (a *Annotation) SetTrackIDs(ids []int64) { a.attrs.Set("track", ids) }

// CropURL returns the service URL of the annotation crop.
func (a *Annotation) CropURL() string {
	u, _ := a.attrs.String("cropURL")
	return u
}

// String formats the annotation for diagnostics.
func (a *Annotation) String() string {
	return fmt.Sprintf("[%s] %d", a.Kind(), a.ID())
}

// Review marks the annotation as reviewed, optionally attaching the given
// terms to the reviewed annotation.
func (a *Annotation) Review(ctx context.Context, api Caller, termIDs ...int64) error {
	if !a.Persisted() {
		return errors.NewError("review",
			fmt.Errorf("%w: annotation has no id", errors.ErrMissingIdentifier))
	}
	if termIDs == nil {
		termIDs = []int64{}
	}
	path := fmt.Sprintf("annotation/%d/review.json", a.ID())
	body := map[string]any{"id": a.ID(), "terms": termIDs}
	var payload map[string]any
	if err := api.PostJSON(ctx, path, body, &payload); err != nil {
		return errors.NewPathError("review", path, err)
	}
	return nil
}

// Dump downloads the annotation crop into the destinations produced by
// destPattern, with optional image transforms. "{attr}" placeholders in the
// pattern are resolved against the annotation attributes and the extension
// must be jpg, png or tif; anything else falls back to jpg. An alpha mask
// aimed at a jpg destination is stored as png, since jpg cannot carry the
// alpha channel. The produced paths are recorded on the annotation and
// returned.
func (a *Annotation) Dump(ctx context.Context, tr Transferer, destPattern string, opts ...DumpOption) ([]string, error) {
	if !a.Persisted() {
		return nil, errors.NewError("dump",
			fmt.Errorf("%w: annotation has no id", errors.ErrMissingIdentifier))
	}
	cropURL := a.CropURL()
	if cropURL == "" {
		return nil, errors.NewError("dump",
			fmt.Errorf("annotation %d carries no crop URL", a.ID()))
	}

	cfg := newDumpConfig(opts)
	urlFor := func(ext string) (string, string) {
		image := "crop"
		switch {
		case cfg.mask && cfg.alpha:
			image = "alphamask"
			// The alpha channel needs a format that can carry it.
			if ext == "jpg" {
				ext = "png"
			}
		case cfg.mask:
			image = "mask"
		}
		replacement := image + "." + ext
		u := strings.ReplaceAll(cropURL, "crop.png", replacement)
		return strings.ReplaceAll(u, "crop.jpg", replacement), ext
	}
	return dumpImage(ctx, tr, &a.Model, destPattern, cfg.override, cfg.queryValues(), urlFor)
}

// AnnotationCollection lists annotations matching a set of query switches.
// Switches left nil are not sent, letting the service apply its defaults;
// the basic and meta projections are requested unless switched off.
type AnnotationCollection struct {
	Collection
	Items []*Annotation

	ShowBasic      *bool
	ShowMeta       *bool
	ShowWKT        *bool
	ShowGIS        *bool
	ShowTerm       *bool
	ShowTrack      *bool
	ShowAlgo       *bool
	ShowUser       *bool
	ShowImage      *bool
	ShowSlice      *bool
	ShowImageGroup *bool
	ShowLink       *bool

	Reviewed     *bool
	NoTerm       *bool
	NoAlgoTerm   *bool
	MultipleTerm *bool

	Project *int64

	User  *int64
	Users []int64

	Image  *int64
	Images []int64

	Slice  *int64
	Slices []int64

	Term            *int64
	Terms           []int64
	SuggestedTerm   *int64
	UserForTermAlgo *int64

	Track  *int64
	Tracks []int64

	Group  *int64
	Groups []int64

	BBox                      *string
	BBoxAnnotation            *int64
	BaseAnnotation            *int64
	MaxDistanceBaseAnnotation *float64

	// Included restricts the listing to annotations fully included in the
	// image set by Image, through a dedicated service endpoint.
	Included   bool
	Annotation *int64
}

// NewAnnotationCollection creates an annotation listing with the default
// projections enabled.
func NewAnnotationCollection() *AnnotationCollection {
	return &AnnotationCollection{
		Collection: newCollection("annotation", true),
		ShowBasic:  Bool(true),
		ShowMeta:   Bool(true),
	}
}

func (c *AnnotationCollection) values() url.Values {
	q := url.Values{}
	setBoolParam(q, "showBasic", c.ShowBasic)
	setBoolParam(q, "showMeta", c.ShowMeta)
	setBoolParam(q, "showWKT", c.ShowWKT)
	setBoolParam(q, "showGIS", c.ShowGIS)
	setBoolParam(q, "showTerm", c.ShowTerm)
	setBoolParam(q, "showTrack", c.ShowTrack)
	setBoolParam(q, "showAlgo", c.ShowAlgo)
	setBoolParam(q, "showUser", c.ShowUser)
	setBoolParam(q, "showImage", c.ShowImage)
	setBoolParam(q, "showSlice", c.ShowSlice)
	setBoolParam(q, "showImageGroup", c.ShowImageGroup)
	setBoolParam(q, "showLink", c.ShowLink)
	setBoolParam(q, "reviewed", c.Reviewed)
	setBoolParam(q, "noTerm", c.NoTerm)
	setBoolParam(q, "noAlgoTerm", c.NoAlgoTerm)
	setBoolParam(q, "multipleTerm", c.MultipleTerm)
	setIntParam(q, "project", c.Project)
	setIntParam(q, "user", c.User)
	setIntsParam(q, "users", c.Users)
	setIntParam(q, "image", c.Image)
	setIntsParam(q, "images", c.Images)
	setIntParam(q, "slice", c.Slice)
	setIntsParam(q, "slices", c.Slices)
	setIntParam(q, "term", c.Term)
	setIntsParam(q, "terms", c.Terms)
	setIntParam(q, "suggestedTerm", c.SuggestedTerm)
	setIntParam(q, "userForTermAlgo", c.UserForTermAlgo)
	setIntParam(q, "track", c.Track)
	setIntsParam(q, "tracks", c.Tracks)
	setIntParam(q, "group", c.Group)
	setIntsParam(q, "groups", c.Groups)
	setStringParam(q, "bbox", c.BBox)
	setIntParam(q, "bboxAnnotation", c.BBoxAnnotation)
	setIntParam(q, "baseAnnotation", c.BaseAnnotation)
	setFloatParam(q, "maxDistanceBaseAnnotation", c.MaxDistanceBaseAnnotation)
	setIntParam(q, "annotation", c.Annotation)
	return q
}

func (c *AnnotationCollection) path() (string, error) {
	if c.Included {
		if c.Image == nil {
			return "", errors.NewError("fetch",
				fmt.Errorf("%w: included mode requires an image", errors.ErrMissingIdentifier))
		}
		return fmt.Sprintf("imageinstance/%d/annotation/included.json", *c.Image), nil
	}
	return c.Collection.Path(), nil
}

// Fetch retrieves the annotations matching the collection switches, bounded
// by the Max and Offset window.
func (c *AnnotationCollection) Fetch(ctx context.Context, api Caller) error {
	path, err := c.path()
	if err != nil {
		return err
	}
	items, err := fetchItems(ctx, api, &c.Collection, path, c.values(), NewAnnotation)
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// FetchAll pages through the whole listing with the given page size.
func (c *AnnotationCollection) FetchAll(ctx context.Context, api Caller, pageSize int64) error {
	path, err := c.path()
	if err != nil {
		return err
	}
	items, err := fetchAllItems(ctx, api, &c.Collection, path, c.values(), pageSize, NewAnnotation)
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// Save creates every annotation of Items in one service call.
func (c *AnnotationCollection) Save(ctx context.Context, api Caller) error {
	return saveItems(ctx, api, &c.Collection, c.Items)
}

// DumpCrops downloads the crop of every annotation in the collection
// through a bounded worker pool. workers of 0 uses the host's available
// parallelism. Per-annotation failures are collected in the report rather
// than aborting the batch; the successfully dumped annotations carry their
// produced file paths.
func (c *AnnotationCollection) DumpCrops(ctx context.Context, tr Transferer, destPattern string, workers int, opts ...DumpOption) *transfer.Report[*Annotation] {
	dump := func(ctx context.Context, an *Annotation) ([]string, error) {
		return an.Dump(ctx, tr, destPattern, opts...)
	}
	report := transfer.Run(ctx, c.Items, dump,
		transfer.WithWorkers(workers),
		transfer.WithLogger(tr.Logger()))

	if report.FailureCount() > 0 {
		logger := tr.Logger()
		logger.Info().Msgf("Failed to download crops for %d/%d annotations (%3.2f %%).",
			report.FailureCount(), report.Total(), report.FailureRate())
		logger.Debug().Interface("annotations", report.FailedIDs()).
			Msg("annotation crop download failures")
	}
	return report
}

// AnnotationTerm associates a term with a user annotation. The relation is
// created and deleted but never updated.
type AnnotationTerm struct {
	Model
}

// NewAnnotationTerm creates the association between an annotation and a
// term. Zero ids are left unset.
func NewAnnotationTerm(annotationID, termID int64) *AnnotationTerm {
	t := &AnnotationTerm{Model: newCompositeModel("annotationterm",
		"annotation/{userannotation}/term/{term}.json",
		"annotation/{userannotation}/term/{term}.json")}
	if annotationID != 0 {
		t.attrs.Set("userannotation", annotationID)
	}
	if termID != 0 {
		t.attrs.Set("term", termID)
	}
	return t
}

// AnnotationID returns the annotation side of the association.
func (t *AnnotationTerm) AnnotationID() (int64, bool) { return t.attrs.Int64("userannotation") }

// TermID returns the term side of the association.
func (t *AnnotationTerm) TermID() (int64, bool) { return t.attrs.Int64("term") }

// String formats the association for diagnostics.
func (t *AnnotationTerm) String() string {
	annotation, _ := t.AnnotationID()
	term, _ := t.TermID()
	return fmt.Sprintf("[%s] annotation %d - term %d", t.Kind(), annotation, term)
}

// AlgoAnnotationTerm associates a term predicted by a software run with an
// annotation. The relation is created and deleted but never updated.
type AlgoAnnotationTerm struct {
	Model
}

// NewAlgoAnnotationTerm creates the association between an annotation and a
// predicted term, with full confidence by default. Zero ids are left unset.
func NewAlgoAnnotationTerm(annotationID, termID int64) *AlgoAnnotationTerm {
	t := &AlgoAnnotationTerm{Model: newCompositeModel("algoannotationterm",
		"annotation/{annotation}/term/{term}.json",
		"annotation/{annotation}/term/{term}.json")}
	if annotationID != 0 {
		t.attrs.Set("annotation", annotationID)
		t.attrs.Set("annotationIdent", annotationID)
	}
	if termID != 0 {
		t.attrs.Set("term", termID)
	}
	t.attrs.Set("rate", 1.0)
	return t
}

// AnnotationID returns the annotation side of the association.
func (t *AlgoAnnotationTerm) AnnotationID() (int64, bool) { return t.attrs.Int64("annotation") }

// TermID returns the term side of the association.
func (t *AlgoAnnotationTerm) TermID() (int64, bool) { return t.attrs.Int64("term") }

// SetExpectedTermID sets the term a human would have associated.
func (t *AlgoAnnotationTerm) SetExpectedTermID(id int64) { t.attrs.Set("expectedTerm", id) }

// Rate returns the confidence of the prediction.
func (t *AlgoAnnotationTerm) Rate() float64 {
	rate, _ := t.attrs.Float64("rate")
	return rate
}

// SetRate sets the confidence of the prediction.
func (t *AlgoAnnotationTerm) SetRate(rate float64) { t.attrs.Set("rate", rate) }

// String formats the association for diagnostics.
func (t *AlgoAnnotationTerm) String() string {
	annotation, _ := t.AnnotationID()
	term, _ := t.TermID()
	return fmt.Sprintf("[%s] annotation %d - term %d", t.Kind(), annotation, term)
}

// AnnotationFilter is a saved annotation search owned by a project.
type AnnotationFilter struct {
	Model
}

// NewAnnotationFilter creates an empty annotation filter.
func NewAnnotationFilter() *AnnotationFilter {
	return &AnnotationFilter{Model: newModel("annotationfilter")}
}

// SetUserIDs sets the users the filter matches.
func (f *AnnotationFilter) SetUserIDs(ids []int64) { f.attrs.Set("users", ids) }

// SetTermIDs sets the terms the filter matches.
func (f *AnnotationFilter) SetTermIDs(ids []int64) { f.attrs.Set("terms", ids) }

// AnnotationFilterCollection lists the annotation filters of a project.
type AnnotationFilterCollection struct {
	Collection
	Items []*AnnotationFilter

	Project *int64
}

// NewAnnotationFilterCollection creates an annotation filter listing.
func NewAnnotationFilterCollection() *AnnotationFilterCollection {
	return &AnnotationFilterCollection{Collection: newCollection("annotationfilter", true)}
}

// Fetch retrieves the annotation filters of the project.
func (c *AnnotationFilterCollection) Fetch(ctx context.Context, api Caller) error {
	q := url.Values{}
	setIntParam(q, "project", c.Project)
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), q, NewAnnotationFilter)
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// Save is rejected: annotation filters are managed through the web
// interface, not created in bulk by clients.
func (c *AnnotationFilterCollection) Save(ctx context.Context, api Caller) error {
	return errors.NewError("save", errors.ErrNotSupported)
}

// AnnotationGroup ties annotations of the images of an image group
// together, marking them as views of the same object.
type AnnotationGroup struct {
	Model
}

// NewAnnotationGroup creates an annotation group of type SAME_OBJECT. Zero
// ids are left unset.
func NewAnnotationGroup(projectID, imageGroupID int64) *AnnotationGroup {
	g := &AnnotationGroup{Model: newModel("annotationgroup")}
	if projectID != 0 {
		g.attrs.Set("project", projectID)
	}
	if imageGroupID != 0 {
		g.attrs.Set("imageGroup", imageGroupID)
	}
	g.attrs.Set("type", "SAME_OBJECT")
	return g
}

// ImageGroupID returns the image group the annotation group belongs to.
func (g *AnnotationGroup) ImageGroupID() (int64, bool) { return g.attrs.Int64("imageGroup") }

// Merge folds the annotation group with the given id into this one. The
// other group's links are moved over and the other group is removed.
func (g *AnnotationGroup) Merge(ctx context.Context, api Caller, otherID int64) error {
	if !g.Persisted() {
		return errors.NewError("merge",
			fmt.Errorf("%w: annotation group has no id", errors.ErrMissingIdentifier))
	}
	path := fmt.Sprintf("annotationgroup/%d/annotationgroup/%d/merge.json", g.ID(), otherID)
	var payload map[string]any
	if err := api.PostJSON(ctx, path, nil, &payload); err != nil {
		return errors.NewPathError("merge", path, err)
	}
	return nil
}

// AnnotationGroupCollection lists annotation groups by project or image
// group.
type AnnotationGroupCollection struct {
	Collection
	Items []*AnnotationGroup
}

// NewAnnotationGroupCollection creates an annotation group listing. The
// listing requires a project or imagegroup filter.
func NewAnnotationGroupCollection() *AnnotationGroupCollection {
	return &AnnotationGroupCollection{
		Collection: newCollection("annotationgroup", false, "project", "imagegroup"),
	}
}

// Fetch retrieves the annotation groups matching the applied filter.
func (c *AnnotationGroupCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *AnnotationGroup {
		return &AnnotationGroup{Model: newModel("annotationgroup")}
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// AnnotationLink attaches an annotation to an annotation group. The
// relation is created and deleted but never updated.
type AnnotationLink struct {
	Model
}

// NewAnnotationLink creates the link between an annotation and an
// annotation group. Zero ids are left unset.
func NewAnnotationLink(annotationID, groupID int64) *AnnotationLink {
	l := &AnnotationLink{Model: newCompositeModel("annotationlink",
		"annotationlink.json",
		"annotationgroup/{group}/annotation/{annotationIdent}.json")}
	if annotationID != 0 {
		l.attrs.Set("annotationIdent", annotationID)
	}
	if groupID != 0 {
		l.attrs.Set("group", groupID)
	}
	return l
}

// AnnotationID returns the annotation side of the link.
func (l *AnnotationLink) AnnotationID() (int64, bool) { return l.attrs.Int64("annotationIdent") }

// GroupID returns the annotation group side of the link.
func (l *AnnotationLink) GroupID() (int64, bool) { return l.attrs.Int64("group") }

// SetAnnotationClassName sets the service class of the linked annotation.
func (l *AnnotationLink) SetAnnotationClassName(name string) {
	l.attrs.Set("annotationClassName", name)
}

// String formats the link for diagnostics.
func (l *AnnotationLink) String() string {
	annotation, _ := l.AnnotationID()
	group, _ := l.GroupID()
	return fmt.Sprintf("[%s] annotation %d - annotation group %d", l.Kind(), annotation, group)
}

// AnnotationLinkCollection lists annotation links by annotation group or
// annotation.
type AnnotationLinkCollection struct {
	Collection
	Items []*AnnotationLink
}

// NewAnnotationLinkCollection creates an annotation link listing. The
// listing requires an annotationgroup or annotation filter.
func NewAnnotationLinkCollection() *AnnotationLinkCollection {
	return &AnnotationLinkCollection{
		Collection: newCollection("annotationlink", false, "annotationgroup", "annotation"),
	}
}

// Fetch retrieves the annotation links matching the applied filter.
func (c *AnnotationLinkCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *AnnotationLink {
		return NewAnnotationLink(0, 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}
