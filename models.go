package authority

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus tags the lifecycle state of a principal.
type UserStatus = string

const (
	// UserStatusEnabled marks an account that may authenticate
	UserStatusEnabled UserStatus = "enabled"
	// UserStatusDisabled marks an account that may not authenticate
	UserStatusDisabled UserStatus = "disabled"
)

// UserKind distinguishes human principals from machine principals.
type UserKind = string

const (
	UserKindHuman   UserKind = "human"
	UserKindService UserKind = "service"
)

// Realm is the tenant boundary. Every principal, role, permission, grant
// edge, and key pair belongs to exactly one realm.
type Realm struct {
	bun.BaseModel `bun:"table:realms,alias:rlm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// KeyPair holds one generation of a realm's asymmetric signing material.
// Key pairs are append-only: the newest pair signs new tokens and every
// retained pair stays valid for verification, so rotation never invalidates
// outstanding tokens.
type KeyPair struct {
	bun.BaseModel `bun:"table:key_pairs,alias:kp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RealmID       uuid.UUID  `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	PublicKey     []byte     `bun:"public_key,notnull" json:"public_key,omitempty"`
	PrivateKey    []byte     `bun:"private_key,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Public projects the key pair to its shareable half.
func (k *KeyPair) Public() PublicKey {
	return PublicKey{
		ID:        k.ID,
		RealmID:   k.RealmID,
		PublicKey: base64.StdEncoding.EncodeToString(k.PublicKey),
		CreatedAt: k.CreatedAt,
	}
}

// PublicKey is the verification half of a KeyPair with the PEM material
// base64 encoded for transport. It is a projection, not a table.
type PublicKey struct {
	ID        uuid.UUID  `json:"id,omitempty"`
	RealmID   uuid.UUID  `json:"realm_id,omitempty"`
	PublicKey string     `json:"public_key,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Material decodes the transported key back to PEM bytes.
func (p PublicKey) Material() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.PublicKey)
}

// User is a principal. Usernames are unique within the authority scope of a
// realm; credential material lives in UserAuthority rows, never here.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string         `bun:"email" json:"email,omitempty"`
	FirstName     string         `bun:"first_name" json:"first_name,omitempty"`
	LastName      string         `bun:"last_name" json:"last_name,omitempty"`
	Phone         string         `bun:"phone_number" json:"phone_number,omitempty"`
	Profile       map[string]any `bun:"profile" json:"profile,omitempty"`
	Status        UserStatus     `bun:"status,notnull" json:"status,omitempty"`
	Kind          UserKind       `bun:"kind,notnull" json:"kind,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Authority is a realm-scoped credential-strategy configuration. Requests
// select an authority (and through it, a realm) by its externally presented
// client key. Params carries opaque strategy configuration such as the
// password salt.
type Authority struct {
	bun.BaseModel `bun:"table:authorities,alias:ath"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RealmID       uuid.UUID      `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	ClientKey     uuid.UUID      `bun:"client_key,notnull,unique,type:uuid" json:"client_key,omitempty"`
	Name          string         `bun:"name,notnull" json:"name,omitempty"`
	Status        string         `bun:"status,notnull" json:"status,omitempty"`
	Strategy      StrategyType   `bun:"strategy,notnull" json:"strategy,omitempty"`
	Params        map[string]any `bun:"params" json:"params,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserAuthority links a principal to an authority with the opaque
// strategy-specific credential payload (e.g. a password digest). A principal
// may hold several credentials across authorities.
type UserAuthority struct {
	bun.BaseModel `bun:"table:user_authorities,alias:uath"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID      `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	AuthorityID   uuid.UUID      `bun:"authority_id,notnull,type:uuid" json:"authority_id,omitempty"`
	RealmID       uuid.UUID      `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	Params        map[string]any `bun:"params" json:"params,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Role is a realm-scoped named grant node.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RealmID       uuid.UUID  `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Permission is the stored form of a "realm:resource:action" triple. The
// realm column is the string segment used in permission matching; realm_id
// scopes the row to its tenant.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:prm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RealmID       uuid.UUID  `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	Realm         string     `bun:"realm,notnull" json:"realm,omitempty"`
	Resource      string     `bun:"resource,notnull" json:"resource,omitempty"`
	Action        string     `bun:"action,notnull" json:"action,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// String renders the matchable triple.
func (p *Permission) String() string {
	return p.Realm + ":" + p.Resource + ":" + p.Action
}

// UserPermission is a direct user→permission grant edge.
type UserPermission struct {
	bun.BaseModel `bun:"table:user_permission_grants,alias:upg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RealmID       uuid.UUID  `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	PermissionID  uuid.UUID  `bun:"permission_id,notnull,type:uuid" json:"permission_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserRole is a user→role grant edge.
type UserRole struct {
	bun.BaseModel `bun:"table:user_role_grants,alias:urg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RealmID       uuid.UUID  `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	RoleID        uuid.UUID  `bun:"role_id,notnull,type:uuid" json:"role_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// RolePermission is a role→permission grant edge.
type RolePermission struct {
	bun.BaseModel `bun:"table:role_permission_grants,alias:rpg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RealmID       uuid.UUID  `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	RoleID        uuid.UUID  `bun:"role_id,notnull,type:uuid" json:"role_id,omitempty"`
	PermissionID  uuid.UUID  `bun:"permission_id,notnull,type:uuid" json:"permission_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// RoleRole is a parent-role→child-role grant edge. The edge set is expected
// to form a DAG but storage does not enforce that; the resolver guards
// against cycles on its own.
type RoleRole struct {
	bun.BaseModel `bun:"table:role_role_grants,alias:rrg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RealmID       uuid.UUID  `bun:"realm_id,notnull,type:uuid" json:"realm_id,omitempty"`
	ParentID      uuid.UUID  `bun:"parent_id,notnull,type:uuid" json:"parent_id,omitempty"`
	ChildID       uuid.UUID  `bun:"child_id,notnull,type:uuid" json:"child_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
