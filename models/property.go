package models

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
	"github.com/Cytomine-ULiege/cytomine-go-client/transfer"
)

const (
	propertyCreationPath = "domain/{domainClassName}/{domainIdent}/property.json"
	propertyInstancePath = "domain/{domainClassName}/{domainIdent}/property/{id}.json"

	tagAssociationCreationPath = "domain/{domainClassName}/{domainIdent}/tag_domain_association.json"
	tagAssociationInstancePath = "tag_domain_association/{id}.json"

	attachedFileCreationPath = "attachedfile.json"
	attachedFileInstancePath = "attachedfile/{id}.json"
)

// Property is a key-value pair attached to any persisted resource.
type Property struct {
	Model
}

// NewProperty creates a key-value pair on owner. The owner must have been
// fetched or saved before. Empty fields are left unset.
func NewProperty(owner *Model, key, value string) (*Property, error) {
	base, err := newDomainModel("property", owner, propertyCreationPath, propertyInstancePath)
	if err != nil {
		return nil, err
	}
	p := &Property{Model: base}
	if key != "" {
		p.attrs.Set("key", key)
	}
	if value != "" {
		p.attrs.Set("value", value)
	}
	return p, nil
}

// Key returns the property key.
func (p *Property) Key() string {
	key, _ := p.attrs.String("key")
	return key
}

// Value returns the property value.
func (p *Property) Value() string {
	value, _ := p.attrs.String("value")
	return value
}

// SetValue sets the property value.
func (p *Property) SetValue(value string) { p.attrs.Set("value", value) }

// FetchByKey loads the owner's property with the given key, without
// knowing its id.
func (p *Property) FetchByKey(ctx context.Context, api Caller, key string) error {
	class, okClass := p.attrs.String("domainClassName")
	ident, okIdent := p.attrs.Int64("domainIdent")
	if !okClass || !okIdent {
		return errors.NewError("fetch",
			fmt.Errorf("%w: property has no owner", errors.ErrMissingIdentifier))
	}
	path := fmt.Sprintf("domain/%s/%d/key/%s/property.json", class, ident, key)
	var payload map[string]any
	if err := api.GetJSON(ctx, path, p.query, &payload); err != nil {
		return errors.NewPathError("fetch", path, err)
	}
	p.attrs.Populate(payload)
	return nil
}

// String formats the property for diagnostics.
func (p *Property) String() string {
	return fmt.Sprintf("[%s] %d : %s - %s", p.Kind(), p.ID(), p.Key(), p.Value())
}

// PropertyCollection lists the properties attached to one resource.
type PropertyCollection struct {
	Collection
	Items []*Property

	domainClassName string
	domainIdent     int64
}

// NewPropertyCollection creates the property listing of owner. The owner
// must have been fetched or saved before.
func NewPropertyCollection(owner *Model) (*PropertyCollection, error) {
	if !owner.Persisted() {
		return nil, fmt.Errorf("%w: property owner %s", errors.ErrOwnerNotPersisted, owner.Kind())
	}
	class, _ := owner.attrs.String("class_")
	return &PropertyCollection{
		Collection:      newCollection("property", true),
		domainClassName: class,
		domainIdent:     owner.ID(),
	}, nil
}

func (c *PropertyCollection) path() string {
	return fmt.Sprintf("domain/%s/%d/%s", c.domainClassName, c.domainIdent, c.Collection.Path())
}

// Fetch retrieves the properties of the owner.
func (c *PropertyCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.path(), nil, func() *Property {
		return &Property{Model: newDomainItem("property",
			c.domainClassName, c.domainIdent, propertyCreationPath, propertyInstancePath)}
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// AsMap projects the fetched properties to a key-value map.
func (c *PropertyCollection) AsMap() map[string]string {
	out := make(map[string]string, len(c.Items))
	for _, p := range c.Items {
		out[p.Key()] = p.Value()
	}
	return out
}

// Description is the rich-text note attached to a resource. Each resource
// holds at most one, addressed without an id.
type Description struct {
	Model
}

// NewDescription creates the note attached to owner. The owner must have
// been fetched or saved before. An empty data is left unset.
func NewDescription(owner *Model, data string) (*Description, error) {
	base, err := newDomainModel("description", owner,
		"domain/{domainClassName}/{domainIdent}/description.json",
		"domain/{domainClassName}/{domainIdent}/description.json")
	if err != nil {
		return nil, err
	}
	d := &Description{Model: base}
	if data != "" {
		d.attrs.Set("data", data)
	}
	return d, nil
}

// Data returns the note content.
func (d *Description) Data() string {
	data, _ := d.attrs.String("data")
	return data
}

// SetData sets the note content.
func (d *Description) SetData(data string) { d.attrs.Set("data", data) }

// Tag is a server-wide label attachable to resources.
type Tag struct {
	Model
}

// NewTag creates a tag. An empty name is left unset.
func NewTag(name string) *Tag {
	t := &Tag{Model: newModel("tag")}
	if name != "" {
		t.attrs.Set("name", name)
	}
	return t
}

// TagCollection lists the tags defined on the server.
type TagCollection struct {
	Collection
	Items []*Tag
}

// NewTagCollection creates a tag listing.
func NewTagCollection() *TagCollection {
	return &TagCollection{Collection: newCollection("tag", true)}
}

// Fetch retrieves the tags of the server.
func (c *TagCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *Tag {
		return NewTag("")
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// TagDomainAssociation attaches a tag to a resource. It is created under
// the owner's domain prefix and addressed by its own id once persisted.
type TagDomainAssociation struct {
	Model
}

// NewTagDomainAssociation creates the attachment of a tag to owner. The
// owner must have been fetched or saved before. A zero tag id is left
// unset.
func NewTagDomainAssociation(owner *Model, tagID int64) (*TagDomainAssociation, error) {
	base, err := newDomainModel("tag_domain_association", owner,
		tagAssociationCreationPath, tagAssociationInstancePath)
	if err != nil {
		return nil, err
	}
	a := &TagDomainAssociation{Model: base}
	if tagID != 0 {
		a.attrs.Set("tag", tagID)
	}
	return a, nil
}

// TagID returns the attached tag.
func (a *TagDomainAssociation) TagID() (int64, bool) { return a.attrs.Int64("tag") }

// TagDomainAssociationCollection lists the tags attached to one resource.
type TagDomainAssociationCollection struct {
	Collection
	Items []*TagDomainAssociation

	domainClassName string
	domainIdent     int64
}

// NewTagDomainAssociationCollection creates the tag attachment listing of
// owner. The owner must have been fetched or saved before.
func NewTagDomainAssociationCollection(owner *Model) (*TagDomainAssociationCollection, error) {
	if !owner.Persisted() {
		return nil, fmt.Errorf("%w: tag association owner %s", errors.ErrOwnerNotPersisted, owner.Kind())
	}
	class, _ := owner.attrs.String("class_")
	return &TagDomainAssociationCollection{
		Collection:      newCollection("tag_domain_association", true),
		domainClassName: class,
		domainIdent:     owner.ID(),
	}, nil
}

func (c *TagDomainAssociationCollection) path() string {
	return fmt.Sprintf("domain/%s/%d/%s", c.domainClassName, c.domainIdent, c.Collection.Path())
}

// Fetch retrieves the tag attachments of the owner.
func (c *TagDomainAssociationCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.path(), nil, func() *TagDomainAssociation {
		return &TagDomainAssociation{Model: newDomainItem("tag_domain_association",
			c.domainClassName, c.domainIdent, tagAssociationCreationPath, tagAssociationInstancePath)}
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// AttachedFile is a file stored alongside a resource. The owner rides in
// the payload rather than the path.
type AttachedFile struct {
	Model
}

// NewAttachedFile creates a file attachment on owner, to be sent with
// Upload. The owner must have been fetched or saved before. An empty
// filename is left unset.
func NewAttachedFile(owner *Model, filename string) (*AttachedFile, error) {
	base, err := newDomainModel("attachedfile", owner,
		attachedFileCreationPath, attachedFileInstancePath)
	if err != nil {
		return nil, err
	}
	f := &AttachedFile{Model: base}
	if filename != "" {
		f.attrs.Set("filename", filename)
	}
	return f, nil
}

// LocalFilename returns the path of the local file to attach.
func (f *AttachedFile) LocalFilename() string {
	filename, _ := f.attrs.String("filename")
	return filename
}

// Upload sends the local file to the service and folds the created
// attachment back into the instance.
func (f *AttachedFile) Upload(ctx context.Context, up Uploader) error {
	filename := f.LocalFilename()
	if filename == "" {
		return errors.NewError("upload",
			fmt.Errorf("%w: attached file has no filename", errors.ErrMissingIdentifier))
	}
	class, _ := f.attrs.String("domainClassName")
	ident, _ := f.attrs.Int64("domainIdent")
	q := url.Values{}
	q.Set("domainClassName", class)
	q.Set("domainIdent", strconv.FormatInt(ident, 10))

	var payload map[string]any
	if err := up.UploadFile(ctx, attachedFileCreationPath, filename, q, &payload); err != nil {
		return errors.NewPathError("upload", attachedFileCreationPath, err)
	}
	f.attrs.Populate(payload)
	return nil
}

// Download retrieves the attachment content into the destination produced
// by destPattern. "{attr}" placeholders in the pattern are resolved
// against the attachment attributes.
func (f *AttachedFile) Download(ctx context.Context, tr Transferer, destPattern string, override bool) (string, error) {
	if !f.Persisted() {
		return "", errors.NewError("download",
			fmt.Errorf("%w: attached file has no id", errors.ErrMissingIdentifier))
	}
	destinations, err := transfer.ResolvePattern(destPattern, f.attrs.Snapshot())
	if err != nil {
		return "", err
	}
	dest := destinations[0]
	path := fmt.Sprintf("attachedfile/%d/download", f.ID())
	if err := tr.DownloadFile(ctx, path, dest, override, nil); err != nil {
		return "", errors.NewPathError("download", path, err)
	}
	return dest, nil
}

// AttachedFileCollection lists the files attached to one resource.
type AttachedFileCollection struct {
	Collection
	Items []*AttachedFile

	domainClassName string
	domainIdent     int64
}

// NewAttachedFileCollection creates the attachment listing of owner. The
// owner must have been fetched or saved before.
func NewAttachedFileCollection(owner *Model) (*AttachedFileCollection, error) {
	if !owner.Persisted() {
		return nil, fmt.Errorf("%w: attached file owner %s", errors.ErrOwnerNotPersisted, owner.Kind())
	}
	class, _ := owner.attrs.String("class_")
	return &AttachedFileCollection{
		Collection:      newCollection("attachedfile", true),
		domainClassName: class,
		domainIdent:     owner.ID(),
	}, nil
}

func (c *AttachedFileCollection) path() string {
	return fmt.Sprintf("domain/%s/%d/%s", c.domainClassName, c.domainIdent, c.Collection.Path())
}

// Fetch retrieves the attachments of the owner.
func (c *AttachedFileCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.path(), nil, func() *AttachedFile {
		return &AttachedFile{Model: newDomainItem("attachedfile",
			c.domainClassName, c.domainIdent, attachedFileCreationPath, attachedFileInstancePath)}
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}
