// Package generator creates new Quill applications. It resolves a Scope
// from command-line options and interactive answers (project name, language,
// package manager, database) and renders the project through the scaffold
// package before installing its dependencies.
package generator
