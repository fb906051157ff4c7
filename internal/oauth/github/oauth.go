// Package github implementa login social vía GitHub OAuth 2.0. GitHub no
// emite id_token, así que el perfil sale de llamadas a su API con el
// access token recién canjeado.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/authgate/internal/oauth"
)

const (
	authEndpoint  = "https://github.com/login/oauth/authorize"
	tokenEndpoint = "https://github.com/login/oauth/access_token"
	userEndpoint  = "https://api.github.com/user"
	emailEndpoint = "https://api.github.com/user/emails"
)

// OAuth es el cliente OAuth 2.0 de GitHub.
type OAuth struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	http *http.Client
}

func New(clientID, clientSecret, redirectURL string) *OAuth {
	return &OAuth{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"user:email", "read:user"},
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *OAuth) Name() string { return "github" }

// AuthURL construye la URL de autorización. GitHub no soporta nonce;
// va embebido en el state que generamos nosotros.
func (g *OAuth) AuthURL(_ context.Context, state, _ string) (string, error) {
	u, _ := url.Parse(authEndpoint)
	q := u.Query()
	q.Set("client_id", g.ClientID)
	q.Set("redirect_uri", g.RedirectURL)
	q.Set("scope", strings.Join(g.Scopes, " "))
	q.Set("state", state)
	q.Set("allow_signup", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

func (g *OAuth) exchangeCode(ctx context.Context, code string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", g.ClientID)
	form.Set("client_secret", g.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", g.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.Error != "" {
		return nil, fmt.Errorf("github oauth error: %s - %s", tr.Error, tr.ErrorDesc)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("no access_token in response")
	}
	return &tr, nil
}

type userInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type emailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *OAuth) getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// primaryEmail busca el mejor email: primario verificado, luego cualquier
// verificado, luego el primero. Hace falta porque muchos usuarios de
// GitHub tienen el email privado y /user lo devuelve vacío.
func (g *OAuth) primaryEmail(ctx context.Context, accessToken string) (*emailInfo, error) {
	var emails []emailInfo
	if err := g.getJSON(ctx, emailEndpoint, accessToken, &emails); err != nil {
		return nil, err
	}
	for i := range emails {
		if emails[i].Primary && emails[i].Verified {
			return &emails[i], nil
		}
	}
	for i := range emails {
		if emails[i].Verified {
			return &emails[i], nil
		}
	}
	if len(emails) > 0 {
		return &emails[0], nil
	}
	return nil, fmt.Errorf("no email found")
}

// FetchProfile canjea el code, consulta la API de usuario y normaliza
// el resultado al Profile común.
func (g *OAuth) FetchProfile(ctx context.Context, code, _ string) (*oauth.Profile, error) {
	tr, err := g.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var info userInfo
	if err := g.getJSON(ctx, userEndpoint, tr.AccessToken, &info); err != nil {
		return nil, err
	}

	emailVerified := false
	if info.Email == "" {
		em, err := g.primaryEmail(ctx, tr.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("get email: %w", err)
		}
		info.Email = em.Email
		emailVerified = em.Verified
	}

	first, last := splitName(info.Name, info.Login)
	return &oauth.Profile{
		Provider:      "github",
		ProviderID:    strconv.FormatInt(info.ID, 10),
		Email:         info.Email,
		EmailVerified: emailVerified,
		FirstName:     first,
		LastName:      last,
		Avatar:        info.AvatarURL,
	}, nil
}

// splitName corta el display name en nombre y apellido; si no hay
// display name se usa el login como nombre.
func splitName(name, login string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return login, ""
	}
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
