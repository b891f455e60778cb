package models

// All lists every model in dependency order, for AutoMigrate on SQLite.
func All() []any {
	return []any{
		&Product{},
		&ProductPricingTier{},
		&Quote{},
		&OutboxEvent{},
	}
}
