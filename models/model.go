package models

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
)

// Caller is the transport surface the resource layer depends on. The root
// package Client satisfies it. Paths are relative to the API root and
// transport failures are surfaced unchanged.
type Caller interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, body any, out any) error
	PutJSON(ctx context.Context, path string, body any, out any) error
	DeleteJSON(ctx context.Context, path string, query url.Values) error
}

// Transferer extends Caller with the file operations image dumps rely on.
type Transferer interface {
	Caller

	// DownloadFile fetches url into destination. When override is false and
	// the destination already exists the transfer is skipped and nil is
	// returned.
	DownloadFile(ctx context.Context, url, destination string, override bool, query url.Values) error

	// FileExists reports whether a destination path already holds a file.
	FileExists(path string) (bool, error)

	// Logger exposes the transport logger, so bulk operations report
	// failures where the client reports everything else.
	Logger() zerolog.Logger
}

// Uploader is the transport surface multipart file uploads depend on.
type Uploader interface {
	// UploadFile posts the local file at filename to path as a multipart
	// form and decodes the JSON response into out.
	UploadFile(ctx context.Context, path, filename string, query url.Values, out any) error
}

// Model is the base state shared by every resource kind: the kind name used
// in paths and payload envelopes, the identity strategy, the dynamic
// attribute set and per-request query parameters. Entity types embed it and
// gain the generic verbs.
type Model struct {
	kind    string
	locator Locator
	attrs   AttributeSet
	query   url.Values

	// immutable kinds reject Update; readOnly kinds reject every mutating
	// verb. Both are fixed per kind at construction.
	immutable bool
	readOnly  bool
}

func newModel(kind string) Model {
	return Model{kind: kind, locator: simpleLocator{}}
}

func newReadOnlyModel(kind string) Model {
	m := newModel(kind)
	m.readOnly = true
	return m
}

// newCompositeModel builds the base of a relation kind. Relations are
// created and deleted but never updated.
func newCompositeModel(kind, creation, instance string) Model {
	return Model{
		kind:      kind,
		locator:   compositeLocator{creation: creation, instance: instance},
		immutable: true,
	}
}

func newFixedModel(kind, path string) Model {
	return Model{kind: kind, locator: fixedLocator{path: path}}
}

// newDomainModel builds the base of a metadata kind attached to owner. The
// owner must have been fetched or saved before; its class and id seed the
// owner reference the path templates expand.
func newDomainModel(kind string, owner *Model, creation, instance string) (Model, error) {
	if !owner.Persisted() {
		return Model{}, fmt.Errorf("%w: %s owner %s", errors.ErrOwnerNotPersisted, kind, owner.kind)
	}
	class, _ := owner.attrs.String("class_")
	return newDomainItem(kind, class, owner.ID(), creation, instance), nil
}

// newDomainItem builds the base of a domain-owned element materialized
// from a listing, seeding the owner reference the listing was built for.
func newDomainItem(kind, class string, ident int64, creation, instance string) Model {
	m := Model{kind: kind, locator: domainLocator{creation: creation, instance: instance}}
	m.attrs.Set("domainClassName", class)
	m.attrs.Set("domainIdent", ident)
	return m
}

// Kind returns the path segment and envelope key of the resource kind.
func (m *Model) Kind() string { return m.kind }

// IdentityKind reports how instances of this kind are addressed.
func (m *Model) IdentityKind() IdentityKind { return m.locator.Kind() }

// Attributes exposes the dynamic attribute set backing the instance.
func (m *Model) Attributes() *AttributeSet { return &m.attrs }

// Populate merges a service payload into the instance attributes.
func (m *Model) Populate(attributes map[string]any) { m.attrs.Populate(attributes) }

// ID returns the surrogate identifier, or 0 when the instance was never
// persisted.
func (m *Model) ID() int64 {
	id, _ := m.attrs.Int64("id")
	return id
}

// SetID sets the surrogate identifier.
func (m *Model) SetID(id int64) { m.attrs.Set("id", id) }

// Persisted reports whether the instance carries a service identity.
func (m *Model) Persisted() bool {
	_, ok := m.attrs.Int64("id")
	return ok
}

// Name returns the display name attribute, when present.
func (m *Model) Name() string {
	name, _ := m.attrs.String("name")
	return name
}

// SetName sets the display name attribute.
func (m *Model) SetName(name string) { m.attrs.Set("name", name) }

func (m *Model) timeAttr(key string) (time.Time, bool) {
	millis, ok := m.attrs.Int64(key)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// CreatedAt returns the service creation timestamp, when present.
func (m *Model) CreatedAt() (time.Time, bool) { return m.timeAttr("created") }

// UpdatedAt returns the service update timestamp, when present.
func (m *Model) UpdatedAt() (time.Time, bool) { return m.timeAttr("updated") }

// DeletedAt returns the soft-delete timestamp, when present.
func (m *Model) DeletedAt() (time.Time, bool) { return m.timeAttr("deleted") }

// SetQueryParameter attaches a query parameter sent with every verb on this
// instance.
func (m *Model) SetQueryParameter(key, value string) {
	if m.query == nil {
		m.query = url.Values{}
	}
	m.query.Set(key, value)
}

// QueryParameters returns the query parameters sent with verbs on this
// instance.
func (m *Model) QueryParameters() url.Values { return m.query }

// Path returns the request path for the current lifecycle state: the
// creation path while the instance is new, the instance path once
// persisted.
func (m *Model) Path() (string, error) {
	if m.Persisted() {
		return m.locator.InstancePath(m)
	}
	return m.locator.CreationPath(m)
}

// String formats the instance for diagnostics.
func (m *Model) String() string {
	return fmt.Sprintf("[%s] %d : %s", m.kind, m.ID(), m.Name())
}

// MarshalJSON encodes the transport projection of the instance attributes.
func (m *Model) MarshalJSON() ([]byte, error) { return m.attrs.MarshalJSON() }

// Fetch loads the instance state from the service. Every identifying
// attribute must be resolvable before any request is issued.
func (m *Model) Fetch(ctx context.Context, api Caller) error {
	path, err := m.locator.InstancePath(m)
	if err != nil {
		return errors.NewError("fetch", err)
	}
	var payload map[string]any
	if err := api.GetJSON(ctx, path, m.query, &payload); err != nil {
		return errors.NewPathError("fetch", path, err)
	}
	m.attrs.Populate(payload)
	return nil
}

// Save creates the instance when it is new and updates it otherwise. On
// creation the service response envelope is folded back into the instance,
// so the assigned id becomes available to the caller.
func (m *Model) Save(ctx context.Context, api Caller) error {
	if m.readOnly {
		return errors.NewError("save", errors.ErrNotSupported)
	}
	if m.Persisted() {
		return m.Update(ctx, api)
	}
	path, err := m.locator.CreationPath(m)
	if err != nil {
		return errors.NewError("save", err)
	}
	var payload map[string]any
	if err := api.PostJSON(ctx, path, &m.attrs, &payload); err != nil {
		return errors.NewPathError("save", path, err)
	}
	if sub, ok := payload[m.kind].(map[string]any); ok {
		m.attrs.Populate(sub)
	}
	return nil
}

// Update pushes the instance attributes to the service. Immutable kinds,
// such as relations, reject the verb before any request is issued.
func (m *Model) Update(ctx context.Context, api Caller) error {
	if m.readOnly || m.immutable {
		return errors.NewError("update", errors.ErrNotSupported)
	}
	path, err := m.locator.InstancePath(m)
	if err != nil {
		return errors.NewError("update", err)
	}
	var payload map[string]any
	if err := api.PutJSON(ctx, path, &m.attrs, &payload); err != nil {
		return errors.NewPathError("update", path, err)
	}
	if sub, ok := payload[m.kind].(map[string]any); ok {
		m.attrs.Populate(sub)
	}
	return nil
}

// Delete removes the persisted instance.
func (m *Model) Delete(ctx context.Context, api Caller) error {
	if m.readOnly {
		return errors.NewError("delete", errors.ErrNotSupported)
	}
	path, err := m.locator.InstancePath(m)
	if err != nil {
		return errors.NewError("delete", err)
	}
	if err := api.DeleteJSON(ctx, path, m.query); err != nil {
		return errors.NewPathError("delete", path, err)
	}
	return nil
}
