// Package scaffold renders a new project from embedded templates. It powers
// "quill new", producing package.json, configuration, the environment file
// and the application entry points for a TypeScript or JavaScript project.
package scaffold
