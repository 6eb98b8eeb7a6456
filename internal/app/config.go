package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"golang.org/x/text/language"

	"github.com/xenking/kdelights/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (KDELIGHTS_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	CouponLedger   string `default:"coupons.txt" usage:"Coupon ledger file" flag:"coupon-ledger"`
	RedeemedLedger string `default:"coupons_redeemed.txt" usage:"Redeemed coupon codes file, used with coupons.consume-on-redeem" flag:"redeemed-ledger"`
	ReceiptPath    string `default:"struk.txt" usage:"Receipt file, overwritten after every payment" flag:"receipt-path"`
	WalletsFile    string `default:"" usage:"YAML wallet seed file; empty uses the demo wallets" flag:"wallets-file"`
	Locale         string `default:"en" usage:"Locale for amount formatting (en, id)"`
	Pricing        PricingConfig
	Coupons        CouponsConfig
	Wallet         WalletConfig
	RateLimit      RateLimitConfig
	Graceful       GracefulConfig
}

// PricingConfig holds the pricing rules. Amounts are whole rupiah.
type PricingConfig struct {
	PromoThreshold    int64 `default:"50000" usage:"Subtotal above which a drink earns a free unit"`
	DiscountThreshold int64 `default:"100000" usage:"Subtotal above which the discount applies"`
	DiscountPercent   int64 `default:"10" usage:"Discount percentage"`
	TaxPercent        int64 `default:"10" usage:"Tax percentage"`
	ServiceFee        int64 `default:"20000" usage:"Flat service fee"`
	FreeDrinkPromo    bool  `default:"false" usage:"Credit the free drink instead of only printing it"`
}

// CouponsConfig controls coupon issuance and redemption.
type CouponsConfig struct {
	RewardValue     int64 `default:"50000" usage:"Value of the coupon issued after each payment"`
	ConsumeOnRedeem bool  `default:"false" usage:"Make redeemed coupons single use"`
}

// WalletConfig controls credential hashing.
type WalletConfig struct {
	HashCost int `default:"0" usage:"bcrypt cost for wallet secrets; 0 uses the bcrypt default"`
}

// RateLimitConfig controls the per-client limit on payment attempts.
type RateLimitConfig struct {
	Max    int           `default:"20" usage:"Max payment attempts per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
	// TrustProxy keys the limit on X-Forwarded-For. Set it only when a
	// reverse proxy in front of the server overwrites that header.
	TrustProxy bool `default:"false" usage:"Key the rate limit on forwarding headers" flag:"trust-proxy"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"1s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"10s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from flags, environment variables and YAML
// config files.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	var cfg Config
	base.EnvPrefix = "KDELIGHTS"
	if base.Files == nil {
		base.Files = []string{"kdelights.yaml", "/etc/kdelights/config.yaml"}
	}
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults honors PORT as set by most PaaS runtimes.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// Validate rejects settings the domain cannot run with.
func (c *Config) Validate() error {
	p := c.Pricing
	switch {
	case p.PromoThreshold < 0, p.DiscountThreshold < 0, p.ServiceFee < 0:
		return errors.New("pricing thresholds and fee must not be negative")
	case p.DiscountPercent < 0 || p.DiscountPercent > 100:
		return errors.Errorf("discount percent %d out of range", p.DiscountPercent)
	case p.TaxPercent < 0 || p.TaxPercent > 100:
		return errors.Errorf("tax percent %d out of range", p.TaxPercent)
	case c.Coupons.RewardValue <= 0:
		return errors.New("coupon reward value must be positive")
	case c.CouponLedger == "" || c.ReceiptPath == "":
		return errors.New("coupon ledger and receipt path are required")
	case c.Coupons.ConsumeOnRedeem && c.RedeemedLedger == "":
		return errors.New("redeemed ledger is required when coupons are consumed on redeem")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return errors.Wrapf(err, "locale %q", c.Locale)
	}
	return nil
}

// PricingRules converts the pricing section into engine rules.
func (c *Config) PricingRules() pricing.Rules {
	return pricing.Rules{
		PromoThreshold:    c.Pricing.PromoThreshold,
		DiscountThreshold: c.Pricing.DiscountThreshold,
		DiscountRate:      pricing.PercentRate(c.Pricing.DiscountPercent),
		TaxRate:           pricing.PercentRate(c.Pricing.TaxPercent),
		ServiceFee:        c.Pricing.ServiceFee,
		FreeDrinkPromo:    c.Pricing.FreeDrinkPromo,
	}
}
