package authority

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GrantTree is the resolved grant graph for one principal in one realm.
// Each node keeps the id of the grant edge that produced it, so a grant
// can be revoked by edge rather than by guessing which row gave a user a
// permission.
type GrantTree struct {
	RealmID uuid.UUID `json:"realm_id"`
	User    UserNode  `json:"user"`
}

type UserNode struct {
	User        *User            `json:"user"`
	Permissions []PermissionNode `json:"permissions"`
	Roles       []RoleNode       `json:"roles"`
}

type PermissionNode struct {
	GrantID    uuid.UUID   `json:"grant_id"`
	Permission *Permission `json:"permission"`
}

type RoleNode struct {
	GrantID     uuid.UUID        `json:"grant_id"`
	Role        *Role            `json:"role"`
	Permissions []PermissionNode `json:"permissions"`
	Roles       []RoleNode       `json:"roles"`
}

// Permissions flattens the tree into the matchable triple strings, first
// occurrence wins, in direct-grant-then-role order.
func (t *GrantTree) Permissions() []string {
	seen := map[string]bool{}
	out := []string{}

	add := func(nodes []PermissionNode) {
		for _, node := range nodes {
			if node.Permission == nil {
				continue
			}
			triple := node.Permission.String()
			if !seen[triple] {
				seen[triple] = true
				out = append(out, triple)
			}
		}
	}

	var walk func(roles []RoleNode)
	walk = func(roles []RoleNode) {
		for _, role := range roles {
			add(role.Permissions)
			walk(role.Roles)
		}
	}

	add(t.User.Permissions)
	walk(t.User.Roles)

	return out
}

// GrantResolver computes grant trees from a GrantStore. It reads the
// principal and the realm's full edge set concurrently, then assembles the
// tree in memory so resolution costs a fixed number of queries regardless
// of graph depth.
type GrantResolver struct {
	store  GrantStore
	logger Logger
}

var _ GrantFlattener = (*GrantResolver)(nil)

func NewGrantResolver(store GrantStore, logger Logger) *GrantResolver {
	if logger == nil {
		logger = defLogger{}
	}
	return &GrantResolver{
		store:  store,
		logger: logger,
	}
}

// ByUserID resolves the grant tree rooted at a principal. Any failed read
// aborts the whole resolution; a partial tree would silently understate or
// overstate what the principal can do.
func (r *GrantResolver) ByUserID(ctx context.Context, realmID, userID uuid.UUID) (*GrantTree, error) {
	var (
		user        *User
		userPerms   []*UserPermission
		userRoles   []*UserRole
		realmPerms  []*Permission
		realmRoles  []*Role
		rolePerms   []*RolePermission
		nestedRoles []*RoleRole
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		user, err = r.store.UserByID(ctx, userID)
		return err
	})

	g.Go(func() (err error) {
		userPerms, err = r.store.UserPermissions(ctx, realmID, userID)
		return err
	})

	g.Go(func() (err error) {
		userRoles, err = r.store.UserRoles(ctx, realmID, userID)
		return err
	})

	g.Go(func() (err error) {
		realmPerms, err = r.store.RealmPermissions(ctx, realmID)
		return err
	})

	g.Go(func() (err error) {
		realmRoles, err = r.store.RealmRoles(ctx, realmID)
		return err
	})

	g.Go(func() (err error) {
		rolePerms, err = r.store.RolePermissions(ctx, realmID)
		return err
	})

	g.Go(func() (err error) {
		nestedRoles, err = r.store.RoleRoles(ctx, realmID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := newGrantIndex(realmPerms, realmRoles, rolePerms, nestedRoles)

	tree := &GrantTree{
		RealmID: realmID,
		User: UserNode{
			User:        user,
			Permissions: idx.permissionNodes(edgesToPermissionRefs(userPerms)),
			Roles:       []RoleNode{},
		},
	}

	visited := map[uuid.UUID]bool{}
	for _, edge := range userRoles {
		node, ok := idx.roleNode(edge.ID, edge.RoleID, visited)
		if !ok {
			continue
		}
		tree.User.Roles = append(tree.User.Roles, node)
	}

	return tree, nil
}

// ByRoleID would resolve the subtree rooted at a role. The edge tables
// support it but nothing implements the traversal yet, so callers get an
// explicit failure instead of an empty tree.
func (r *GrantResolver) ByRoleID(ctx context.Context, realmID, roleID uuid.UUID) (*GrantTree, error) {
	return nil, ErrRoleResolutionUnsupported
}

type permissionRef struct {
	grantID      uuid.UUID
	permissionID uuid.UUID
}

func edgesToPermissionRefs(edges []*UserPermission) []permissionRef {
	refs := make([]permissionRef, 0, len(edges))
	for _, edge := range edges {
		refs = append(refs, permissionRef{grantID: edge.ID, permissionID: edge.PermissionID})
	}
	return refs
}

// grantIndex holds the realm's catalog and edge rows keyed for tree
// assembly.
type grantIndex struct {
	permsByID   map[uuid.UUID]*Permission
	rolesByID   map[uuid.UUID]*Role
	permsByRole map[uuid.UUID][]permissionRef
	rolesByRole map[uuid.UUID][]*RoleRole
}

func newGrantIndex(perms []*Permission, roles []*Role, rolePerms []*RolePermission, nested []*RoleRole) *grantIndex {
	idx := &grantIndex{
		permsByID:   map[uuid.UUID]*Permission{},
		rolesByID:   map[uuid.UUID]*Role{},
		permsByRole: map[uuid.UUID][]permissionRef{},
		rolesByRole: map[uuid.UUID][]*RoleRole{},
	}

	for _, p := range perms {
		idx.permsByID[p.ID] = p
	}
	for _, r := range roles {
		idx.rolesByID[r.ID] = r
	}
	for _, edge := range rolePerms {
		idx.permsByRole[edge.RoleID] = append(idx.permsByRole[edge.RoleID], permissionRef{
			grantID:      edge.ID,
			permissionID: edge.PermissionID,
		})
	}
	for _, edge := range nested {
		idx.rolesByRole[edge.ParentID] = append(idx.rolesByRole[edge.ParentID], edge)
	}

	return idx
}

func (idx *grantIndex) permissionNodes(refs []permissionRef) []PermissionNode {
	nodes := []PermissionNode{}
	for _, ref := range refs {
		perm, ok := idx.permsByID[ref.permissionID]
		if !ok {
			// dangling edge, e.g. permission deleted out from under it
			continue
		}
		nodes = append(nodes, PermissionNode{
			GrantID:    ref.grantID,
			Permission: perm,
		})
	}
	return nodes
}

// roleNode builds the subtree for one role. The visited set tracks the
// current path so a role cycle terminates instead of recursing forever;
// the same role reached through two different parents still expands in
// both places.
func (idx *grantIndex) roleNode(grantID, roleID uuid.UUID, visited map[uuid.UUID]bool) (RoleNode, bool) {
	role, ok := idx.rolesByID[roleID]
	if !ok {
		return RoleNode{}, false
	}

	if visited[roleID] {
		return RoleNode{}, false
	}
	visited[roleID] = true
	defer delete(visited, roleID)

	node := RoleNode{
		GrantID:     grantID,
		Role:        role,
		Permissions: idx.permissionNodes(idx.permsByRole[roleID]),
		Roles:       []RoleNode{},
	}

	for _, edge := range idx.rolesByRole[roleID] {
		child, ok := idx.roleNode(edge.ID, edge.ChildID, visited)
		if !ok {
			continue
		}
		node.Roles = append(node.Roles, child)
	}

	return node, true
}
