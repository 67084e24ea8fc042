// Package server exposes the social directory over HTTP.
//
// # Routes
//
// Every route except GET /health runs behind auth.Middleware, which resolves
// the caller from the x-api-key header (or a bearer token) and records the
// request in the caller's usage counters.
//
//	GET    /                        ping
//	GET    /user                    own private view
//	GET    /user/search?name=       another user's public view
//	GET    /user/settings           own settings
//	PATCH  /user/settings           partial settings edit
//	GET    /user/profile            own profile
//	PATCH  /user/profile            partial profile edit
//	GET    /user/block              paged block list
//	POST   /user/block?name=        block
//	DELETE /user/block?name=        unblock
//	GET    /users                   paged public directory
//	GET    /friend                  paged friends
//	DELETE /friend?name=            unfriend
//	GET    /friend/request          paged incoming requests
//	POST   /friend/request?name=    send
//	DELETE /friend/request?name=    retract
//	POST   /friend/request/accept   accept (?name=)
//	POST   /friend/request/deny     deny (?name=)
//	GET    /notification            paged notifications
//	DELETE /notification            clear notifications
//	GET    /timezone                timezone names
//	PUT    /timezone?timezone=      set own timezone
//	GET    /metrics/usage           own usage counters
//	GET    /metrics/usage/all       usage over every user (Administrator)
//
// Paged routes accept page, page_size and, where a user view is returned,
// include_user_profile.
//
// # Errors
//
// Errors are {"error": "..."}. Missing or hidden users are 404, operations
// invalid in the current relationship state are 400, and storage failures
// are 500 without detail.
package server
