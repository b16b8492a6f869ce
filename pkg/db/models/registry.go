package models

// All lists every model owned by the ledger schema, in dependency order.
func All() []any {
	return []any{&User{}, &Category{}, &Product{}, &Listing{}, &Order{}, &OutboxEvent{}}
}
