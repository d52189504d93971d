package checkout

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// GatewaySignature carries the integrity hash and its expiration as returned
// by the backend. Opaque: passed through to the gateway unmodified.
type GatewaySignature struct {
	Integrity      string `json:"integrity"`
	ExpirationTime string `json:"expiration_time"`
}

// GatewayParams is the single-use transaction descriptor returned by
// POST /payments/wompi/init. Not persisted beyond the active attempt.
type GatewayParams struct {
	PublicKey     string            `json:"public_key"`
	Currency      string            `json:"currency"`
	AmountInCents int64             `json:"amount_in_cents"`
	Reference     string            `json:"reference"`
	RedirectURL   string            `json:"redirect_url"`
	Signature     *GatewaySignature `json:"signature"`
}

// MissingFields lists required fields that are absent. Must be consulted
// before either integration path is attempted.
func (p *GatewayParams) MissingFields() []string {
	var missing []string
	if p.PublicKey == "" {
		missing = append(missing, "public_key")
	}
	if p.Currency == "" {
		missing = append(missing, "currency")
	}
	if p.AmountInCents <= 0 {
		missing = append(missing, "amount_in_cents")
	}
	if p.Reference == "" {
		missing = append(missing, "reference")
	}
	if p.RedirectURL == "" {
		missing = append(missing, "redirect_url")
	}
	if p.Signature == nil || p.Signature.Integrity == "" {
		missing = append(missing, "signature")
	} else if p.Signature.ExpirationTime == "" {
		missing = append(missing, "signature.expiration_time")
	}
	return missing
}

// HostedCheckoutURL builds the redirect-mode URL. The parameter names are
// the gateway's, not the backend's: snake_case API fields map onto
// hyphen/colon-delimited gateway fields, with the signature sub-fields
// promoted to distinct top-level parameters.
func HostedCheckoutURL(base string, p *GatewayParams) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("public-key", strings.TrimSpace(p.PublicKey))
	q.Set("currency", strings.TrimSpace(p.Currency))
	q.Set("amount-in-cents", strconv.FormatInt(p.AmountInCents, 10))
	q.Set("reference", strings.TrimSpace(p.Reference))
	q.Set("redirect-url", strings.TrimSpace(p.RedirectURL))
	if p.Signature != nil {
		q.Set("signature:integrity", strings.TrimSpace(p.Signature.Integrity))
		q.Set("signature:timestamp", strings.TrimSpace(p.Signature.ExpirationTime))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PrivateHost reports whether host belongs to a local or private network.
// Such environments cannot load the embedded widget and always use the
// redirect mode.
func PrivateHost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))

	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
