package stats

// DTOs for the statistics API.

// EditCountDTO is the /user/simple_editcount response.
type EditCountDTO struct {
	Username         string `json:"username"`
	UserID           int64  `json:"user_id"`
	LiveEditCount    int    `json:"live_edit_count"`
	DeletedEditCount int    `json:"deleted_edit_count"`
	TotalEditCount   int    `json:"total_edit_count"`
}

// MonthTotalDTO is one month's edit count.
type MonthTotalDTO struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// MonthCountsDTO is the /user/month_counts response.
type MonthCountsDTO struct {
	Username string          `json:"username"`
	Months   []MonthTotalDTO `json:"months"`
}

// TopEditDTO is one page in a /user/top_edits response.
type TopEditDTO struct {
	PageTitle string `json:"page_title"`
	Count     int    `json:"count"`
}

type topEditsEnvelope struct {
	TopEdits []TopEditDTO `json:"top_edits"`
}

type namespaceTotalsEnvelope struct {
	// Namespace numbers arrive as JSON object keys, so they are strings
	// on the wire.
	NamespaceTotals map[string]int `json:"namespace_totals"`
}
