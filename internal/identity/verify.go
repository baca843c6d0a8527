package identity

import (
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

// SignatureVerifier checks a webhook body against its transport headers.
type SignatureVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// SvixVerifier validates the svix-id / svix-timestamp / svix-signature
// envelope with the pre-shared endpoint secret.
type SvixVerifier struct {
	wh *svix.Webhook
}

func NewSvixVerifier(secret string) (*SvixVerifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return &SvixVerifier{wh: wh}, nil
}

func (v *SvixVerifier) Verify(payload []byte, headers http.Header) error {
	return v.wh.Verify(payload, headers)
}
