// Package token answers "is the stored cloud token currently valid". Tokens are
// JWTs verified against the JWKS advertised by the remote CLI configuration,
// which is fetched again on every check. Local persistence is best effort:
// read/write failures are logged and treated as "no valid token".
package token
