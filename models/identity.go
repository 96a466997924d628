package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
)

// IdentityKind classifies how a resource kind is addressed by the service.
type IdentityKind int

const (
	// IdentitySimple resources are addressed by their surrogate id.
	IdentitySimple IdentityKind = iota

	// IdentityComposite resources are relations addressed by the ids of the
	// resources they join.
	IdentityComposite

	// IdentityDomainOwned resources are metadata attached to an owning
	// resource and addressed under its domain prefix.
	IdentityDomainOwned
)

// String returns the identity kind name.
func (k IdentityKind) String() string {
	switch k {
	case IdentityComposite:
		return "composite"
	case IdentityDomainOwned:
		return "domain-owned"
	default:
		return "simple"
	}
}

// Locator computes request paths from instance state. Implementations are
// pure: they never mutate the model and never perform I/O. Verbs choose
// which path to use, so a relation never needs a placeholder id to be
// addressed as persisted.
type Locator interface {
	// Kind reports the identity shape this locator implements.
	Kind() IdentityKind

	// InstancePath returns the path addressing the persisted instance. It
	// fails with ErrMissingIdentifier when an identifying attribute is
	// absent.
	InstancePath(m *Model) (string, error)

	// CreationPath returns the path used to create a new instance.
	CreationPath(m *Model) (string, error)
}

// simpleLocator addresses a resource by its surrogate id:
// "<kind>.json" for creation, "<kind>/<id>.json" once persisted.
type simpleLocator struct{}

func (simpleLocator) Kind() IdentityKind { return IdentitySimple }

func (simpleLocator) InstancePath(m *Model) (string, error) {
	id, ok := m.attrs.Int64("id")
	if !ok {
		return "", fmt.Errorf("%w: %s has no id", errors.ErrMissingIdentifier, m.kind)
	}
	return fmt.Sprintf("%s/%d.json", m.kind, id), nil
}

func (simpleLocator) CreationPath(m *Model) (string, error) {
	return m.kind + ".json", nil
}

// fixedLocator addresses a singleton endpoint, such as the current user,
// with the same path in every lifecycle state.
type fixedLocator struct {
	path string
}

func (fixedLocator) Kind() IdentityKind { return IdentitySimple }

func (l fixedLocator) InstancePath(m *Model) (string, error) {
	return l.path, nil
}

func (l fixedLocator) CreationPath(m *Model) (string, error) {
	return l.path, nil
}

// compositeLocator addresses a relation between resources. The creation
// path is a fixed relation path while the instance path embeds every key
// component positionally. Templates use "{attr}" placeholders resolved
// against the model's attributes.
type compositeLocator struct {
	creation string
	instance string
}

func (compositeLocator) Kind() IdentityKind { return IdentityComposite }

func (l compositeLocator) InstancePath(m *Model) (string, error) {
	return expandPath(l.instance, m)
}

func (l compositeLocator) CreationPath(m *Model) (string, error) {
	return expandPath(l.creation, m)
}

// domainLocator addresses metadata attached to an owning resource. Paths
// are templates expanded against the owner reference captured at
// construction and the instance id. Most kinds live under the owner's
// "domain/<class>/<ident>" prefix in both lifecycle states; some detach
// from the prefix once persisted or skip it on creation and carry the
// owner in the payload instead.
type domainLocator struct {
	creation string
	instance string
}

func (domainLocator) Kind() IdentityKind { return IdentityDomainOwned }

func (l domainLocator) InstancePath(m *Model) (string, error) {
	return expandPath(l.instance, m)
}

func (l domainLocator) CreationPath(m *Model) (string, error) {
	return expandPath(l.creation, m)
}

// expandPath substitutes each "{attr}" placeholder in template with the
// model's value for attr. Placeholders resolve to integer identifiers or,
// for owner class references, non-empty strings.
func expandPath(template string, m *Model) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		name := rest[open+1 : open+closing]
		b.WriteString(rest[:open])
		if id, ok := m.attrs.Int64(name); ok {
			b.WriteString(strconv.FormatInt(id, 10))
		} else if s, ok := m.attrs.String(name); ok && s != "" {
			b.WriteString(s)
		} else {
			return "", fmt.Errorf("%w: %s has no %s", errors.ErrMissingIdentifier, m.kind, name)
		}
		rest = rest[open+closing+1:]
	}
}
