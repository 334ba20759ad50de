package types

// PlanCode identifies a catalog entry (for example "free" or "pro_monthly").
type PlanCode string

// Plan is an immutable catalog entry. Plans are administrative configuration:
// price and duration are only ever read from here, never from a client request.
type Plan struct {
	Code     PlanCode `json:"code" mapstructure:"code"`
	Title    string   `json:"title" mapstructure:"title"`
	Currency string   `json:"currency" mapstructure:"currency"`
	// Price in minor currency units (kopecks, cents).
	Price int64 `json:"price" mapstructure:"price"`
	// DurationDays of 0 means the plan never expires.
	DurationDays int `json:"duration_days" mapstructure:"duration_days"`
	// DailyPhotoLimit of nil means unlimited.
	DailyPhotoLimit *int `json:"daily_photo_limit" mapstructure:"daily_photo_limit"`
	// IsTest plans are excluded from the public catalog and reachable only
	// through the admin surface.
	IsTest bool `json:"is_test" mapstructure:"is_test"`
}

func (p *Plan) Unbounded() bool {
	return p != nil && p.DurationDays == 0
}

func (p *Plan) Unlimited() bool {
	return p != nil && p.DailyPhotoLimit == nil
}
