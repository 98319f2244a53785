// Package authority provides multi-tenant authentication and authorization
// primitives: realm-scoped credential authorities, a grant graph resolver,
// and RS256 token issuance with rotating realm keys.
//
// Realms and authorities:
//   - A Realm is the tenant boundary; every principal, grant edge, and key
//     pair belongs to exactly one. Authorities are realm-scoped credential
//     configurations selected per request by an opaque client key, so the
//     caller never names a realm directly.
//   - Credential schemes plug in through Strategy implementations keyed in a
//     StrategyRegistry. The username/password strategy stores salted bcrypt
//     digests on the user-authority link, never on the user row.
//
// Grants:
//   - Permissions are "realm:resource:action" triples with single-segment
//     ("*") and multi-segment ("**") wildcards on the granted side; the
//     matching algebra lives in the permission subpackage.
//   - GrantResolver flattens the user/role/permission edge tables into a
//     GrantTree with a fixed number of reads regardless of nesting depth.
//     Each node keeps its producing grant edge so grants can be revoked
//     precisely.
//
// Tokens:
//   - TokenService signs Claims with the realm's newest RSA key pair and
//     verifies against every retained public key, so key rotation never
//     invalidates outstanding tokens. RequestAuthenticator gates fiber
//     routes on those tokens.
package authority
