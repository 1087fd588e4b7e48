package domain

// Product is one catalog entry. Price and stock are optional columns; a
// catalog that only carries ID|NOMBRE leaves them zero.
type Product struct {
	ID    string
	Name  string
	Price int64
	Stock int64
}

// Event is delivered to subscribers whenever the catalog is reloaded.
type Event struct {
	Products int
	Err      error
}
