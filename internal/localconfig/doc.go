// Package localconfig persists the cloud login record (~/.quill/cloud.json).
// The record is always read and written as a whole; unknown keys written by
// other tools survive a round trip.
package localconfig
