package models

import "time"

// Restaurant, Table and Product are the relational schema backing the
// persistence collaborator (§6.2). The engine only ever reads through
// PersistenceService; it never touches gorm directly.
type Restaurant struct {
	ID   string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name string `gorm:"column:name;type:text" json:"name"`
}

func (Restaurant) TableName() string { return "restaurants" }

type Table struct {
	ID           string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RestaurantID string `gorm:"column:restaurant_id;type:uuid;index" json:"restaurant_id"`
	QRToken      string `gorm:"column:qr_token;type:text;uniqueIndex" json:"qr_token"`
	Label        string `gorm:"column:label;type:text" json:"label"` // e.g. "T1"
}

func (Table) TableName() string { return "tables" }

type Product struct {
	ID           string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RestaurantID string  `gorm:"column:restaurant_id;type:uuid;index" json:"restaurant_id"`
	Name         string  `gorm:"column:name;type:text" json:"name"`
	PriceCents   int64   `gorm:"column:price_cents;type:bigint" json:"price_cents"`
	Allergens    string  `gorm:"column:allergens;type:text" json:"allergens,omitempty"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// MenuContext is the in-memory, cacheable view of a table's menu handed
// to the LLM client and returned by the persistence collaborator's
// GetMenu operation (§6.2).
type MenuContext struct {
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	TableID        string    `json:"table_id"`
	TableLabel     string    `json:"table_label"`
	Products       []Product `json:"products"`
	ContentHash    string    `json:"content_hash"`
}

// AsPromptText renders a compact menu listing for the LLM system prompt,
// mirroring the terse "Menü:\n<name>: <price>" block the original
// llm.py builds before the user turn.
func (m MenuContext) AsPromptText() string {
	out := ""
	for _, p := range m.Products {
		out += p.Name + ": " + formatCents(p.PriceCents) + "\n"
	}
	return out
}

func formatCents(cents int64) string {
	whole := cents / 100
	frac := cents % 100
	if frac == 0 {
		return itoa(whole)
	}
	return itoa(whole) + "." + itoa(frac)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
