// Package github signs users in with their GitHub account.
package github

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/go-resty/resty/v2"
)

const (
	ProviderName = "github"

	defaultWebURL = "https://github.com"
	defaultAPIURL = "https://api.github.com"
	scope         = "read:user user:email"
)

type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	// Overridable for tests.
	WebURL string
	APIURL string
}

type Provider struct {
	cfg Config
	web *resty.Client
	api *resty.Client
}

func New(cfg Config) *Provider {
	cfg.WebURL = cmp.Or(cfg.WebURL, defaultWebURL)
	cfg.APIURL = cmp.Or(cfg.APIURL, defaultAPIURL)

	web := resty.New().
		SetBaseURL(cfg.WebURL).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json")

	api := resty.New().
		SetBaseURL(cfg.APIURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")

	return &Provider{cfg: cfg, web: web, api: api}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) AuthCodeURL(state string) string {
	q := url.Values{
		"client_id":    {p.cfg.ClientID},
		"redirect_uri": {p.cfg.CallbackURL},
		"scope":        {scope},
		"state":        {state},
	}
	return p.cfg.WebURL + "/login/oauth/authorize?" + q.Encode()
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type emailResponse struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Identity exchanges code for a token and reads the profile. The email is the
// account's primary verified address; it is empty when there is none.
func (p *Provider) Identity(ctx context.Context, code string) (domain.ExternalIdentity, error) {
	accessToken, err := p.exchange(ctx, code)
	if err != nil {
		return domain.ExternalIdentity{}, err
	}

	var user userResponse
	if err := p.get(ctx, accessToken, "/user", &user); err != nil {
		return domain.ExternalIdentity{}, err
	}

	var emails []emailResponse
	if err := p.get(ctx, accessToken, "/user/emails", &emails); err != nil {
		return domain.ExternalIdentity{}, err
	}

	return domain.ExternalIdentity{
		Provider:   ProviderName,
		ProviderID: strconv.FormatInt(user.ID, 10),
		Email:      primaryVerified(emails),
		Name:       cmp.Or(user.Name, user.Login),
		AvatarURL:  user.AvatarURL,
	}, nil
}

func (p *Provider) exchange(ctx context.Context, code string) (string, error) {
	var tok tokenResponse
	resp, err := p.web.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     p.cfg.ClientID,
			"client_secret": p.cfg.ClientSecret,
			"code":          code,
			"redirect_uri":  p.cfg.CallbackURL,
		}).
		SetResult(&tok).
		Post("/login/oauth/access_token")
	if err != nil {
		return "", fmt.Errorf("%w: exchange code: %v", domain.ErrOAuthFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: exchange code: HTTP %d", domain.ErrOAuthFailed, resp.StatusCode())
	}
	// GitHub reports a bad code with 200 and an error field.
	if tok.Error != "" || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: exchange code: %s %s", domain.ErrOAuthFailed, tok.Error, tok.ErrorDescription)
	}
	return tok.AccessToken, nil
}

func (p *Provider) get(ctx context.Context, accessToken, path string, out any) error {
	resp, err := p.api.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", domain.ErrOAuthFailed, path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: GET %s: HTTP %d", domain.ErrOAuthFailed, path, resp.StatusCode())
	}
	return nil
}

func primaryVerified(emails []emailResponse) string {
	var fallback string
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	return fallback
}
