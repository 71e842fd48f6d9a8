// Package library holds the named operation trees a deployment evaluates by
// name.
//
// Trees are loaded from a directory of JSON or YAML documents, one tree per
// file. A document is either an envelope
//
//	name: discount-eligible
//	description: customer may receive the loyalty discount
//	tree:
//	  tag: And
//	  operands: [...]
//
// or a bare operation node, in which case the tree is named after the file.
//
// The Manager owns the active set. Every load parses and validates the whole
// directory before swapping the Registry contents, so readers always see a
// complete set and a failed reload keeps the previous one. Hot reload is
// driven by an fsnotify watcher (mode "file") or by polling a Git remote
// (mode "git").
package library
