// Package model defines the typed form definition the embeddable widget loads
// from the public API, the in-memory submission draft it edits, and the view
// snapshot renderers consume. Field constraints reuse the canonical rule
// identifiers (min/max, minLength/maxLength, pattern) with string parameters
// so renderers can map them onto HTML attributes and validators without
// losing deterministic JSON payloads. Select kinds carry their allowed values
// in Options; membership is part of validation, not a rule.
package model
