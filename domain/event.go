package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Documented metadata keys.
const (
	MetaChannel      = "channel"
	MetaUTMSource    = "utm_source"
	MetaUTMMedium    = "utm_medium"
	MetaUTMCampaign  = "utm_campaign"
	MetaUTMTerm      = "utm_term"
	MetaUTMContent   = "utm_content"
	MetaRevenue      = "revenue"
	MetaIsConversion = "is_conversion"
	MetaReferrer     = "referrer"
)

// UnknownChannel is the channel assigned to events with no resolvable source.
const UnknownChannel = "unknown"

// Metadata is a flat bag of scalar values attached to an event.
type Metadata map[string]any

// String returns the value for key as a trimmed string. Numbers and bools are formatted.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Float parses the value for key as a float. Missing or unparseable values report ok=false.
func (m Metadata) Float(key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	var f float64
	switch v := m[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if !finite(f) {
		return 0, false
	}
	return f, true
}

// finite rejects NaN and infinities, which ParseFloat accepts.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Bool reports whether the value for key is truthy.
func (m Metadata) Bool(key string) bool {
	if m == nil {
		return false
	}
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

// Event is an append-only behavioral touchpoint. IntentScore and EngagementScore are frozen at creation.
type Event struct {
	ID              string    `json:"id"`
	WorkspaceID     string    `json:"workspace_id"`
	AccountID       string    `json:"account_id,omitempty"`
	ContactID       string    `json:"contact_id,omitempty"`
	AnonymousID     string    `json:"anonymous_id,omitempty"`
	EventType       string    `json:"event_type"`
	Source          string    `json:"source,omitempty"`
	URL             string    `json:"url,omitempty"`
	Page            string    `json:"page,omitempty"`
	Route           string    `json:"route,omitempty"`
	Referrer        string    `json:"referrer,omitempty"`
	IP              string    `json:"ip,omitempty"`
	UserAgent       string    `json:"user_agent,omitempty"`
	Duration        float64   `json:"duration,omitempty"`
	Value           *float64  `json:"value,omitempty"`
	Metadata        Metadata  `json:"metadata,omitempty"`
	IntentScore     float64   `json:"intent_score"`
	EngagementScore float64   `json:"engagement_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// Anonymous reports whether the event has no linked account.
func (e *Event) Anonymous() bool {
	return e == nil || e.AccountID == ""
}

// Channel resolves the marketing channel: source, then metadata channel, utm_source, utm_medium.
func (e *Event) Channel() string {
	if e == nil {
		return UnknownChannel
	}
	if s := strings.TrimSpace(e.Source); s != "" {
		return s
	}
	for _, key := range []string{MetaChannel, MetaUTMSource, MetaUTMMedium} {
		if v := e.Metadata.String(key); v != "" {
			return v
		}
	}
	return UnknownChannel
}

// Revenue resolves the event's revenue: value, else metadata revenue. Parse failures and
// non-finite numbers yield 0.
func (e *Event) Revenue() float64 {
	if e == nil {
		return 0
	}
	if e.Value != nil {
		if !finite(*e.Value) {
			return 0
		}
		return *e.Value
	}
	if v, ok := e.Metadata.Float(MetaRevenue); ok {
		return v
	}
	return 0
}

// ConversionTypes are event types that always count as conversions.
var ConversionTypes = map[string]struct{}{
	"booking":         {},
	"purchase":        {},
	"deal_closed":     {},
	"opportunity_won": {},
	"form_submit":     {},
}

// IsConversion reports whether the event is flagged, carries revenue, or has a conversion type.
func (e *Event) IsConversion() bool {
	if e == nil {
		return false
	}
	if e.Metadata.Bool(MetaIsConversion) {
		return true
	}
	if e.Revenue() > 0 {
		return true
	}
	_, ok := ConversionTypes[strings.ToLower(e.EventType)]
	return ok
}
