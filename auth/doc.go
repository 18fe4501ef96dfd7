// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing, session tokens and small random
helpers.

# Passwords

Credentials are stored as bcrypt hashes:

	hash, err := auth.HashPassword(plain, bcrypt.DefaultCost)
	ok := auth.VerifyPassword(hash, plain)

VerifyPassword also accepts legacy plaintext entries (anything that is not a
bcrypt hash) and compares them in constant time. Callers looking up an
unknown user should call BurnCompare so the response time does not reveal
whether the account exists.

# Sessions

Sessions are HS256 JWTs carried in an HttpOnly cookie:

	sessions := auth.NewSessions(secret, 12*time.Hour, false)
	token, session, err := sessions.Issue(identity)
	http.SetCookie(w, sessions.Cookie(token, session.ExpiresAt))

	session, err := sessions.Parse(token)

Each token carries the username, the admin flag, a random jti and an expiry.
Parse rejects other signing methods and expired tokens.

# ID Generation

	id, err := auth.GenerateID(16)          // 32 hex characters
	secret, err := auth.GenerateSecret(32)  // URL-safe base64

# IP Hashing

Rate limit keys never contain raw addresses:

	key := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
