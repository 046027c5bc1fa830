package database

// FireRow is the last scheduled delivery date of one chat.
type FireRow struct {
	ChatID    int64  `db:"chat_id"`
	FiredOn   string `db:"fired_on"`
	UpdatedAt string `db:"updated_at"`
}

// DeliveryRow is one entry of the delivery history.
type DeliveryRow struct {
	ID          int64  `db:"id"`
	ChatID      int64  `db:"chat_id"`
	FiredOn     string `db:"fired_on"`
	Category    string `db:"category"`
	Quote       string `db:"quote"`
	DeliveredAt string `db:"delivered_at"` // RFC 3339, UTC
}
