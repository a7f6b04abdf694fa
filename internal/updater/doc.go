// Package updater checks the npm registry for framework releases newer than
// the one new projects are generated with. A daily-cached check powers the
// banner printed by "quill new".
package updater
