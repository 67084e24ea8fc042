// Package auth authenticates directory requests.
//
// # Credentials
//
// Every user owns a secret key that doubles as their identity. Clients send
// it in the x-api-key header. When a JWT secret is configured, clients may
// instead send "Authorization: Bearer <token>" where the token's subject is
// the user key; tokens are minted with JWTVerifier.Generate.
//
// # Request Flow
//
//	request -> Middleware.Wrap -> load user -> RecordAccess -> SaveUser -> handler
//
// The handler reads the resolved user with FromContext or MustFromContext.
// The user is a request-scoped copy, so handlers may mutate and save it.
//
// # Permissions
//
// RequirePermission gates a handler on the user's directory-wide permission
// level. Levels are ordered User < Moderator < Administrator < Owner.
package auth
