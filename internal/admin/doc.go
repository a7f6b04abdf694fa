// Package admin holds the admin panel's navigation model: menu links, settings
// sections and their links, plus the router that serves them over HTTP.
//
// A Registry is created per application and filled during a single
// registration phase (see Initialize). Sealing it turns it read-only, after
// which it can be shared by request goroutines without locking. Each link
// carries a ViewLoader that is only invoked when the link is first navigated
// to.
package admin
