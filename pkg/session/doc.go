/*
Package session implements accounts and login sessions for the development backend.

Passwords are stored as bcrypt hashes. A successful login issues an opaque random
token kept in a ports.TokenStore with a TTL; the token is the only thing the client
holds, so nothing user-controlled is ever decoded server-side.
*/
package session
