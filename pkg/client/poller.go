package client

import (
	"context"
	"errors"
	"time"

	"github.com/voyagery/voyagery-api/pkg/dto"
)

// DefaultPollInterval is how often consultation requests are re-fetched.
const DefaultPollInterval = 10 * time.Second

// GuideSessionLister is the part of Client a Poller needs.
type GuideSessionLister interface {
	ListGuideSessions(ctx context.Context, tabID string, filter ListFilter) ([]dto.GuideSessionResponse, error)
}

// Poller fetches the full request list on a fixed interval. Every poll replaces the previous
// result, so a missed or duplicated poll does no harm.
type Poller struct {
	api      GuideSessionLister
	session  *TabSession
	filter   ListFilter
	interval time.Duration

	OnUpdate func([]dto.GuideSessionResponse)
	OnError  func(error)
}

func NewPoller(api GuideSessionLister, session *TabSession, filter ListFilter, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		api:      api,
		session:  session,
		filter:   filter,
		interval: interval,
	}
}

// Run polls immediately and then every interval until ctx is done. A 401 evicts the tab's
// identity and stops the poller.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.poll(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	sessions, err := p.api.ListGuideSessions(ctx, p.session.TabID(), p.filter)
	switch {
	case err == nil:
		if p.OnUpdate != nil {
			p.OnUpdate(sessions)
		}
		return nil
	case errors.Is(err, ErrNotAuthenticated):
		if evictErr := p.session.Evict(ctx); evictErr != nil {
			return evictErr
		}
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		if p.OnError != nil {
			p.OnError(err)
		}
		return nil
	}
}
