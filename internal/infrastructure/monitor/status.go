package monitor

import "time"

type Status struct {
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	NATS       bool      `json:"nats"`
	Buffer     bool      `json:"buffer"`
	Pending    int       `json:"buffer_pending"`
	Dead       int       `json:"buffer_dead"`
	LastCheck  time.Time `json:"last_check"`
}
