package config

// ServiceConfig carries the application-level settings.
type ServiceConfig struct {
	Name                string             `mapstructure:"name"`
	Environment         string             `mapstructure:"environment"`
	Version             string             `mapstructure:"version"`
	ClientURL           string             `mapstructure:"client_url"`
	StripeSecretKey     string             `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string             `mapstructure:"stripe_webhook_secret"`
	CSRFEnabled         bool               `mapstructure:"csrf_enabled"`
	Supabase            SupabaseConfig     `mapstructure:"supabase"`
	Checkout            CheckoutConfig     `mapstructure:"checkout"`
	Plans               map[string]PlanIDs `mapstructure:"plans"`
	RateLimit           RateLimitConfig    `mapstructure:"rate_limit"`
}

// SupabaseConfig carries the hosted-auth settings. Tokens are verified
// locally with the project's JWT secret.
type SupabaseConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// CheckoutConfig carries defaults for hosted checkout sessions.
type CheckoutConfig struct {
	TrialDays  int64  `mapstructure:"trial_days"`
	SuccessURL string `mapstructure:"success_url"`
	CancelURL  string `mapstructure:"cancel_url"`
}

// PlanIDs maps one catalog plan to its Stripe price identifiers. Values here
// override the ones baked into the plan catalog.
type PlanIDs struct {
	MonthlyPriceID string `mapstructure:"monthly_price_id"`
	YearlyPriceID  string `mapstructure:"yearly_price_id"`
}

// RateLimitConfig controls the per-IP request limiter.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Requests allowed per window.
	Limit int `mapstructure:"limit"`
	// Window length in seconds.
	WindowSeconds int `mapstructure:"window_seconds"`
}

// IsDevelopment reports whether the service runs in a development environment.
func (s *ServiceConfig) IsDevelopment() bool {
	return s.Environment != "production"
}
