// Package document implements the document service: typed content entries
// grouped by content type, with draft/published versions per locale and a
// webhook event for every lifecycle change.
package document
