package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// sender is the slice of *router.ServiceRouter the notifier uses.
type sender interface {
	Send(message string, params *stypes.Params) []error
}

// ShoutrrrNotifier pushes escalations to every configured shoutrrr URL
// (telegram, ntfy, slack, email and so on).
type ShoutrrrNotifier struct {
	sender sender
}

// NewShoutrrrNotifier validates urls and builds a single sender for all of them.
func NewShoutrrrNotifier(urls []string, timeout time.Duration) (*ShoutrrrNotifier, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one notification URL is required")
	}
	router, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("create notification sender: %w", err)
	}
	if timeout > 0 {
		router.Timeout = timeout
	}
	router.SetLogger(log.New(io.Discard, "", 0))
	return &ShoutrrrNotifier{sender: router}, nil
}

func (n *ShoutrrrNotifier) Name() string { return "shoutrrr" }

// Accepts only changes into alert or critical.
func (n *ShoutrrrNotifier) Accepts(c domain.StatusChange) bool { return c.Status.Escalated(c.Previous) }

func (n *ShoutrrrNotifier) Notify(_ context.Context, c domain.StatusChange) error {
	params := stypes.Params{}
	params.SetTitle(c.Title())
	return errors.Join(n.sender.Send(c.Message(), &params)...)
}
