// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the scanning API.

	mux := router.NewRouter(svc, tokens, limiter, cfg)

# Endpoints

Public:

	GET  /health
	POST /login          - rate limited per client
	POST /logout

Any logged-in user:

	GET    /me
	POST   /scans              - camera widget (when enabled)
	POST   /scans/upload       - image upload (when enabled)
	GET    /scans/mine
	GET    /scans/mine/export
	DELETE /scans/mine

Administrators:

	GET    /admin/summary
	GET    /admin/scans?user=
	GET    /admin/scans/export?user=
	DELETE /admin/scans?user=
	GET    /admin/users
	POST   /admin/users
	POST   /admin/users/{username}/rename
	POST   /admin/users/{username}/password
	DELETE /admin/users/{username}

A capture route is registered only when its source is listed in
CAPTURE_SOURCES; a disabled source answers 404.
*/
package router
