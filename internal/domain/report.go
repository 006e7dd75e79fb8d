package domain

// UserSummary is the headline account-count report.
type UserSummary struct {
	TotalUsers    int64
	ActiveUsers   int64
	InactiveUsers int64
}

// MonthlyRegistrations counts accounts created in one calendar month.
type MonthlyRegistrations struct {
	Year  int
	Month int
	Count int64
}
