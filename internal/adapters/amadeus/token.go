// internal/adapters/amadeus/token.go
package amadeus

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"tripfinder/internal/adapters/httpx"
	"tripfinder/internal/adapters/observability"
	"tripfinder/internal/domain"
)

// TokenProvider holds the client-credentials bearer in a single guarded slot.
// Concurrent Refresh calls share one exchange.
type TokenProvider struct {
	base   string
	id     string
	secret string
	hx     *httpx.Client

	mu    sync.RWMutex
	token string
	sf    singleflight.Group
}

func NewTokenProvider(hx *httpx.Client, base, clientID, clientSecret string) *TokenProvider {
	return &TokenProvider{
		base:   strings.TrimRight(base, "/"),
		id:     clientID,
		secret: clientSecret,
		hx:     hx,
	}
}

// Token returns the current bearer, which is empty until the first Refresh.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token, nil
}

func (p *TokenProvider) Refresh(ctx context.Context) error {
	_, err, shared := p.sf.Do("refresh", func() (any, error) {
		return nil, p.refresh(ctx)
	})
	if shared {
		log.Debug().Msg("token refresh shared with concurrent caller")
	}
	return err
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (p *TokenProvider) refresh(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.id)
	form.Set("client_secret", p.secret)

	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")

	var out tokenResponse
	err := p.hx.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		URL:    p.base + "/v1/security/oauth2/token",
		Header: h,
		Body:   []byte(form.Encode()),
	}, &out)
	if err == nil && out.AccessToken == "" {
		err = errors.New("empty access_token in response")
	}
	observability.ObserveTokenRefresh(p.hx.Service(), err)
	if err != nil {
		log.Error().Err(err).Str("service", p.hx.Service()).Msg("token refresh failed")
		return domain.UpstreamAuthError{Status: statusOf(err), Err: err}
	}

	p.mu.Lock()
	p.token = out.AccessToken
	p.mu.Unlock()
	log.Info().Int("expires_in", out.ExpiresIn).Msg("bearer token refreshed")
	return nil
}

func statusOf(err error) int {
	var se *httpx.StatusError
	switch {
	case errors.As(err, &se):
		return se.Code
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return 0
	}
}
