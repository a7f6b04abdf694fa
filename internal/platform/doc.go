// Package platform provides cross-platform filesystem helpers: permission
// management that degrades to a no-op on Windows, and atomic whole-file
// replacement used for records that must never be observed half-written.
package platform
