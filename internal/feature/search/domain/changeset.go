package domain

// Changeset records the searchable entities touched by one transaction.
// It is filled while the transaction runs and turned into intents only after commit;
// a rolled-back transaction simply drops its changeset.
type Changeset struct {
	order   []key
	entries map[key]entry
}

type key struct {
	index string
	id    uint
}

type entry struct {
	op     Op
	fields map[string]string
}

// NewChangeset returns an empty changeset.
func NewChangeset() *Changeset {
	return &Changeset{entries: make(map[key]entry)}
}

// Add records a newly created entity.
func (c *Changeset) Add(s Searchable) {
	c.record(s, OpUpsert)
}

// Update records a modified entity.
func (c *Changeset) Update(s Searchable) {
	c.record(s, OpUpsert)
}

// Remove records a deleted entity.
func (c *Changeset) Remove(s Searchable) {
	c.record(s, OpRemove)
}

func (c *Changeset) record(s Searchable, op Op) {
	k := key{index: s.SearchIndex(), id: s.SearchID()}
	if _, seen := c.entries[k]; !seen {
		c.order = append(c.order, k)
	}
	e := entry{op: op}
	if op == OpUpsert {
		e.fields = s.SearchFields()
	}
	// The last change to a document wins.
	c.entries[k] = e
}

// Len returns the number of distinct documents touched.
func (c *Changeset) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Intents returns one intent per touched document in first-touch order.
func (c *Changeset) Intents() []Intent {
	if c.Len() == 0 {
		return nil
	}
	out := make([]Intent, 0, len(c.order))
	for _, k := range c.order {
		e := c.entries[k]
		out = append(out, Intent{Op: e.op, Index: k.index, ID: k.id, Fields: e.fields})
	}
	return out
}
