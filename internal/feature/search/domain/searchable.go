// Package domain defines the search mirror's vocabulary: searchable entities,
// per-transaction changesets and the index intents derived from them.
package domain

// Searchable is implemented by entities whose fields are mirrored into the keyword index.
type Searchable interface {
	// SearchIndex names the index (document table) the entity lives in.
	SearchIndex() string
	// SearchID is the document identity inside the index.
	SearchID() uint
	// SearchFields returns the indexed subset of the entity's fields.
	SearchFields() map[string]string
}

// Op is the kind of mutation an Intent applies to the index.
type Op string

const (
	// OpUpsert adds a document or replaces its fields.
	OpUpsert Op = "upsert"
	// OpRemove deletes a document.
	OpRemove Op = "remove"
)

// Intent is one index mutation scheduled after a successful commit.
type Intent struct {
	Op     Op                `json:"op"`
	Index  string            `json:"index"`
	ID     uint              `json:"id"`
	Fields map[string]string `json:"fields,omitempty"`
}
