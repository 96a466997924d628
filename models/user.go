package models

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
)

// Keys is an API key pair attached to a user account.
type Keys struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// User is an account on the server.
type User struct {
	Model
}

// NewUser creates a user account. Empty fields are left unset.
func NewUser(username, firstname, lastname, email string) *User {
	u := &User{Model: newModel("user")}
	if username != "" {
		u.attrs.Set("username", username)
	}
	if firstname != "" {
		u.attrs.Set("firstname", firstname)
	}
	if lastname != "" {
		u.attrs.Set("lastname", lastname)
	}
	if email != "" {
		u.attrs.Set("email", email)
	}
	return u
}

// Username returns the login of the user.
func (u *User) Username() string {
	username, _ := u.attrs.String("username")
	return username
}

// Firstname returns the first name of the user.
func (u *User) Firstname() string {
	firstname, _ := u.attrs.String("firstname")
	return firstname
}

// Lastname returns the last name of the user.
func (u *User) Lastname() string {
	lastname, _ := u.attrs.String("lastname")
	return lastname
}

// Email returns the mail address of the user.
func (u *User) Email() string {
	email, _ := u.attrs.String("email")
	return email
}

// SetPassword sets the password sent on account creation.
func (u *User) SetPassword(password string) { u.attrs.Set("password", password) }

// SetLanguage sets the interface language of the account.
func (u *User) SetLanguage(language string) { u.attrs.Set("language", language) }

// SetDeveloper marks the account as a developer account.
func (u *User) SetDeveloper(developer bool) { u.attrs.Set("isDeveloper", developer) }

// Admin reports whether the server granted the account the admin role.
func (u *User) Admin() bool {
	admin, _ := u.attrs.Bool("admin")
	return admin
}

// Guest reports whether the server granted the account the guest role only.
func (u *User) Guest() bool {
	guest, _ := u.attrs.Bool("guest")
	return guest
}

// Keys retrieves the API key pair of the user. The call only succeeds for
// superadmin sessions.
func (u *User) Keys(ctx context.Context, api Caller) (*Keys, error) {
	if !u.Persisted() {
		return nil, errors.NewError("keys",
			fmt.Errorf("%w: user has no id", errors.ErrMissingIdentifier))
	}
	path := fmt.Sprintf("user/%d/keys.json", u.ID())
	keys := new(Keys)
	if err := api.GetJSON(ctx, path, nil, keys); err != nil {
		return nil, errors.NewPathError("keys", path, err)
	}
	return keys, nil
}

// String formats the user for diagnostics.
func (u *User) String() string {
	return fmt.Sprintf("[%s] %d : %s", u.Kind(), u.ID(), u.Username())
}

// CurrentUser is the account owning the credentials of the connection. It
// is fetched from a fixed endpoint and carries its own key pair.
type CurrentUser struct {
	User
}

// NewCurrentUser creates the handle on the connected account. Fetch it to
// load the account attributes.
func NewCurrentUser() *CurrentUser {
	return &CurrentUser{User: User{Model: newFixedModel("user", "user/current.json")}}
}

// PublicKey returns the public API key of the connected account.
func (u *CurrentUser) PublicKey() string {
	key, _ := u.attrs.String("publicKey")
	return key
}

// PrivateKey returns the private API key of the connected account.
func (u *CurrentUser) PrivateKey() string {
	key, _ := u.attrs.String("privateKey")
	return key
}

// Keys retrieves the API key pair bound to the public key of the connected
// account.
func (u *CurrentUser) Keys(ctx context.Context, api Caller) (*Keys, error) {
	publicKey := u.PublicKey()
	if publicKey == "" {
		return nil, errors.NewError("keys",
			fmt.Errorf("%w: current user has no public key", errors.ErrMissingIdentifier))
	}
	path := fmt.Sprintf("userkey/%s/keys.json", publicKey)
	keys := new(Keys)
	if err := api.GetJSON(ctx, path, nil, keys); err != nil {
		return nil, errors.NewPathError("keys", path, err)
	}
	return keys, nil
}

// Signature retrieves the server-side signature material of the connected
// account.
func (u *CurrentUser) Signature(ctx context.Context, api Caller) (map[string]any, error) {
	payload := map[string]any{}
	if err := api.GetJSON(ctx, "signature.json", nil, &payload); err != nil {
		return nil, errors.NewPathError("signature", "signature.json", err)
	}
	return payload, nil
}

// String formats the connected account for diagnostics.
func (u *CurrentUser) String() string {
	return fmt.Sprintf("[%s] CURRENT USER - %d : %s", u.Kind(), u.ID(), u.Username())
}

// UserCollection lists user accounts, optionally restricted to a project
// or an ontology.
type UserCollection struct {
	Collection
	Items []*User

	// Admin restricts a project listing to the project administrators.
	Admin     *bool
	Online    *bool
	PublicKey *string
}

// NewUserCollection creates a user listing.
func NewUserCollection() *UserCollection {
	return &UserCollection{Collection: newCollection("user", true, "project", "ontology")}
}

func (c *UserCollection) values() url.Values {
	q := url.Values{}
	setBoolParam(q, "admin", c.Admin)
	setBoolParam(q, "online", c.Online)
	setStringParam(q, "publicKey", c.PublicKey)
	return q
}

func (c *UserCollection) path() string {
	path := c.Collection.Path()
	if _, ok := c.Filter("project"); ok && c.Admin != nil && *c.Admin {
		path = strings.Replace(path, "user", "admin", 1)
	}
	return path
}

// Fetch retrieves the users matching the collection switches, bounded by
// the Max and Offset window.
func (c *UserCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.path(), c.values(), func() *User {
		return NewUser("", "", "", "")
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// Role is a server-wide authority grantable to users. Roles are defined by
// the server and never written by clients.
type Role struct {
	Model
}

// NewRole creates a role handle.
func NewRole() *Role {
	return &Role{Model: newReadOnlyModel("role")}
}

// Authority returns the authority string of the role.
func (r *Role) Authority() string {
	authority, _ := r.attrs.String("authority")
	return authority
}

// String formats the role for diagnostics.
func (r *Role) String() string {
	return fmt.Sprintf("[%s] %d : %s", r.Kind(), r.ID(), r.Authority())
}

// RoleCollection lists the roles defined by the server.
type RoleCollection struct {
	Collection
	Items []*Role
}

// NewRoleCollection creates a role listing.
func NewRoleCollection() *RoleCollection {
	return &RoleCollection{Collection: newCollection("role", true)}
}

// Fetch retrieves the roles of the server.
func (c *RoleCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, NewRole)
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// UserRole grants a role to a user. The grant is created and deleted but
// never updated.
type UserRole struct {
	Model
}

// NewUserRole creates the grant of a role to a user. Zero ids are left
// unset.
func NewUserRole(userID, roleID int64) *UserRole {
	r := &UserRole{Model: newCompositeModel("secusersecrole",
		"user/{user}/role.json",
		"user/{user}/role/{role}.json")}
	if userID != 0 {
		r.attrs.Set("user", userID)
	}
	if roleID != 0 {
		r.attrs.Set("role", roleID)
	}
	return r
}

// UserID returns the user side of the grant.
func (r *UserRole) UserID() (int64, bool) { return r.attrs.Int64("user") }

// RoleID returns the role side of the grant.
func (r *UserRole) RoleID() (int64, bool) { return r.attrs.Int64("role") }

// Authority returns the authority string of the granted role.
func (r *UserRole) Authority() string {
	authority, _ := r.attrs.String("authority")
	return authority
}

// String formats the grant for diagnostics.
func (r *UserRole) String() string {
	user, _ := r.UserID()
	role, _ := r.RoleID()
	return fmt.Sprintf("[%s] %d : user %d - role %d", r.Kind(), r.ID(), user, role)
}

// UserRoleCollection lists the role grants of a user. The listing endpoint
// is named after the role side of the grant.
type UserRoleCollection struct {
	Collection
	Items []*UserRole
}

// NewUserRoleCollection creates a role grant listing. The listing requires
// a user filter.
func NewUserRoleCollection() *UserRoleCollection {
	return &UserRoleCollection{Collection: newCollection("role", false, "user")}
}

// Fetch retrieves the role grants of the filtered user.
func (c *UserRoleCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *UserRole {
		return NewUserRole(0, 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}
