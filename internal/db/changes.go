package db

// Kind names the entity a Change refers to
type Kind string

const (
	KindProject Kind = "project"
	KindItem    Kind = "item"
)

// Op is the mutation applied to an entity
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes one applied mutation
type Change struct {
	Kind      Kind
	Op        Op
	ID        string
	ProjectID string // Owning project for items, the project itself for projects
	Remote    bool   // Applied by the sync client rather than a local edit
}

// OnChange registers fn to be called after every applied mutation.
// Callbacks run on the mutating goroutine after the store lock is released.
func (db *DB) OnChange(fn func(Change)) {
	db.obsMu.Lock()
	defer db.obsMu.Unlock()
	db.observers = append(db.observers, fn)
}

func (db *DB) publish(changes []Change) {
	if len(changes) == 0 {
		return
	}

	db.obsMu.RLock()
	observers := make([]func(Change), len(db.observers))
	copy(observers, db.observers)
	db.obsMu.RUnlock()

	for _, c := range changes {
		for _, fn := range observers {
			fn(c)
		}
	}
}
