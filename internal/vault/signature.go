// Package vault provides the security primitives of the bot: Slack request
// signature verification and TLS certificate generation.
package vault

import (
	"net/http"

	"github.com/slack-go/slack"
)

// VerifyRequest checks the X-Slack-Request-Timestamp and X-Slack-Signature
// headers against body. Requests older than five minutes are refused.
func VerifyRequest(header http.Header, body []byte, secret string) error {
	sv, err := slack.NewSecretsVerifier(header, secret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}
