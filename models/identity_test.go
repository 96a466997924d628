package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
)

// ownedBy builds a persisted owner the way a fetch would, with the service
// class attached.
func ownedBy(kind, class string, id int64) *Model {
	m := newModel(kind)
	m.SetID(id)
	m.Populate(map[string]any{"class": class})
	return &m
}

func TestSimpleIdentityPaths(t *testing.T) {
	project := NewProject("demo", 0)

	path, err := project.Path()
	require.NoError(t, err)
	assert.Equal(t, "project.json", path)

	project.SetID(42)
	path, err = project.Path()
	require.NoError(t, err)
	assert.Equal(t, "project/42.json", path)
	assert.Equal(t, IdentitySimple, project.IdentityKind())
}

func TestFixedIdentityPath(t *testing.T) {
	user := NewCurrentUser()

	path, err := user.Path()
	require.NoError(t, err)
	assert.Equal(t, "user/current.json", path)

	// The endpoint does not move once the account is loaded.
	user.SetID(7)
	path, err = user.Path()
	require.NoError(t, err)
	assert.Equal(t, "user/current.json", path)
}

func TestCompositeIdentityPaths(t *testing.T) {
	tests := []struct {
		name         string
		model        *Model
		wantCreation string
		wantInstance string
	}{
		{
			name:         "annotation term",
			model:        &NewAnnotationTerm(12, 5).Model,
			wantCreation: "annotation/12/term/5.json",
			wantInstance: "annotation/12/term/5.json",
		},
		{
			name:         "user role",
			model:        &NewUserRole(7, 2).Model,
			wantCreation: "user/7/role.json",
			wantInstance: "user/7/role/2.json",
		},
		{
			name:         "term parent relation",
			model:        &NewRelationTerm(3, 9).Model,
			wantCreation: "relation/parent/term.json",
			wantInstance: "relation/parent/term1/3/term2/9.json",
		},
		{
			name:         "image group attachment",
			model:        &NewImageGroupImageInstance(4, 8).Model,
			wantCreation: "imagegroup/4/imageinstance/8.json",
			wantInstance: "imagegroup/4/imageinstance/8.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, IdentityComposite, tt.model.IdentityKind())

			creation, err := tt.model.locator.CreationPath(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreation, creation)

			instance, err := tt.model.locator.InstancePath(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInstance, instance)
		})
	}
}

func TestCompositePathMissingComponent(t *testing.T) {
	relation := NewUserRole(7, 0)

	_, err := relation.locator.InstancePath(&relation.Model)
	assert.ErrorIs(t, err, errors.ErrMissingIdentifier)

	// The creation template only needs the user side.
	path, err := relation.locator.CreationPath(&relation.Model)
	require.NoError(t, err)
	assert.Equal(t, "user/7/role.json", path)
}

func TestDomainIdentityPaths(t *testing.T) {
	owner := ownedBy("imageinstance", "be.cytomine.image.ImageInstance", 3)

	property, err := NewProperty(owner, "stain", "HE")
	require.NoError(t, err)
	assert.Equal(t, IdentityDomainOwned, property.IdentityKind())

	path, err := property.Path()
	require.NoError(t, err)
	assert.Equal(t, "domain/be.cytomine.image.ImageInstance/3/property.json", path)

	property.SetID(9)
	path, err = property.Path()
	require.NoError(t, err)
	assert.Equal(t, "domain/be.cytomine.image.ImageInstance/3/property/9.json", path)
}

func TestDescriptionPathHasNoID(t *testing.T) {
	owner := ownedBy("project", "be.cytomine.project.Project", 3)

	description, err := NewDescription(owner, "notes")
	require.NoError(t, err)

	path, err := description.Path()
	require.NoError(t, err)
	assert.Equal(t, "domain/be.cytomine.project.Project/3/description.json", path)

	// A loaded note keeps the same bare path.
	description.SetID(11)
	path, err = description.Path()
	require.NoError(t, err)
	assert.Equal(t, "domain/be.cytomine.project.Project/3/description.json", path)
}

func TestTagAssociationDetachesOncePersisted(t *testing.T) {
	owner := ownedBy("project", "be.cytomine.project.Project", 3)

	association, err := NewTagDomainAssociation(owner, 5)
	require.NoError(t, err)

	path, err := association.Path()
	require.NoError(t, err)
	assert.Equal(t, "domain/be.cytomine.project.Project/3/tag_domain_association.json", path)

	association.SetID(21)
	path, err = association.Path()
	require.NoError(t, err)
	assert.Equal(t, "tag_domain_association/21.json", path)
}

func TestAttachedFilePathsSkipDomainPrefix(t *testing.T) {
	owner := ownedBy("annotation", "be.cytomine.ontology.UserAnnotation", 3)

	file, err := NewAttachedFile(owner, "/tmp/report.pdf")
	require.NoError(t, err)

	path, err := file.Path()
	require.NoError(t, err)
	assert.Equal(t, "attachedfile.json", path)

	file.SetID(33)
	path, err = file.Path()
	require.NoError(t, err)
	assert.Equal(t, "attachedfile/33.json", path)
}

func TestDomainModelRequiresPersistedOwner(t *testing.T) {
	owner := NewProject("unsaved", 0)

	_, err := NewProperty(&owner.Model, "key", "value")
	assert.ErrorIs(t, err, errors.ErrOwnerNotPersisted)

	_, err = NewDescription(&owner.Model, "data")
	assert.ErrorIs(t, err, errors.ErrOwnerNotPersisted)

	_, err = NewAttachedFile(&owner.Model, "file")
	assert.ErrorIs(t, err, errors.ErrOwnerNotPersisted)
}

func TestIdentityKindString(t *testing.T) {
	assert.Equal(t, "simple", IdentitySimple.String())
	assert.Equal(t, "composite", IdentityComposite.String())
	assert.Equal(t, "domain-owned", IdentityDomainOwned.String())
}
