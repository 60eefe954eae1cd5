package billing

// Config holds webhook ingress settings loaded from the environment.
type Config struct {
	SignatureHeader string `env:"BILLING_WEBHOOK_SIGNATURE_HEADER" envDefault:"Webhook-Signature"`
	MaxBodyBytes    int64  `env:"BILLING_WEBHOOK_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Options converts the config into handler options.
func (c Config) Options() []Option {
	return []Option{
		WithSignatureHeader(c.SignatureHeader),
		WithMaxBodyBytes(c.MaxBodyBytes),
	}
}
