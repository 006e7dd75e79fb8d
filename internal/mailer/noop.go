package mailer

import (
	"context"

	"github.com/nexushq/nexus/pkg/slogx"
)

// Noop logs instead of sending. Used in dev and test so no API key is
// ever required to run the service.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, _ string) error {
	slogx.FromContext(ctx).Info("mailer disabled, dropping email",
		"to", to,
		"subject", subject,
	)
	return nil
}
