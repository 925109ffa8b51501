package transport

import "time"

type AccountRequest struct {
	Name          string  `json:"name"`
	Domain        string  `json:"domain"`
	Industry      string  `json:"industry"`
	EmployeeRange string  `json:"employee_range"`
	Country       string  `json:"country"`
	City          string  `json:"city"`
	Owner         string  `json:"owner"`
	Stage         string  `json:"stage"`
	FitScore      float64 `json:"fit_score"`
}

type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Title string `json:"title"`
	Phone string `json:"phone"`
}

type TaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Owner       string     `json:"owner"`
	DueAt       *time.Time `json:"due_at"`
}

type AlertRequest struct {
	AccountID string `json:"account_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
}

type OpportunityRequest struct {
	AccountID string     `json:"account_id"`
	Name      string     `json:"name"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	Stage     string     `json:"stage"`
	Status    string     `json:"status"`
	CloseDate *time.Time `json:"close_date"`
}

type VisitRequest struct {
	AccountID    string `json:"account_id"`
	URL          string `json:"url"`
	Referrer     string `json:"referrer"`
	Country      string `json:"country"`
	City         string `json:"city"`
	CompanyGuess string `json:"company_guess"`
}

// TokenRequest exchanges an API key for a bearer token. The key may also come from X-API-Key.
type TokenRequest struct {
	APIKey string `json:"api_key"`
}
