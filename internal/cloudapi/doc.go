// Package cloudapi talks to the cloud CLI API: the public CLI configuration
// (JWKS location and OAuth endpoints) and the authenticated user profile.
package cloudapi
