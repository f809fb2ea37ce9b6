// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides voting codes, password hashing, and admin sessions.

# Voting Codes

Voting codes are 5 characters drawn from A-Z and 0-9 with crypto/rand:

	code, err := auth.GenerateTokenCode()

Codes typed by voters are normalized before any lookup:

	code, err := auth.NormalizeCode(" ab12c ") // "AB12C"

NormalizeCode returns ErrInvalidCode for the wrong length or any character
outside the alphabet. Uniqueness against stored tokens is the caller's job.

# Passwords

Admin passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword("secret")
	err := auth.CheckPassword(hash, "secret")

# Sessions

Admin sessions are HS256 JWTs carrying the admin ID, username and role:

	token, expiresAt, err := auth.IssueAccessToken(id, username, role, secret, 12*time.Hour)
	claims, err := auth.ParseAccessToken(token, secret)

ParseAccessToken returns ErrExpiredToken or ErrInvalidToken on failure.
*/
package auth
