package service

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const RoleAdmin = "admin"

// IdentityClient resolves a requester against the identity service.
type IdentityClient interface {
	GetMe(ctx context.Context, userID uuid.UUID) (IdentityUser, error)
}

// IdentityUser is the part of an identity profile the schedule cares about:
// who the requester is and which role names they hold.
type IdentityUser struct {
	ID    uuid.UUID
	Roles []string
}

func (u IdentityUser) HasRole(name string) bool {
	return slices.Contains(u.Roles, name)
}

// UnmarshalJSON reads the identity service's /me body, flattening its role
// objects into role names.
func (u *IdentityUser) UnmarshalJSON(data []byte) error {
	var body struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
		Roles []struct {
			Name string `json:"name"`
		} `json:"roles"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	if body.User.ID == uuid.Nil {
		return errors.New("identity profile has no user id")
	}

	u.ID = body.User.ID
	u.Roles = make([]string, 0, len(body.Roles))
	for _, role := range body.Roles {
		if name := strings.TrimSpace(role.Name); name != "" {
			u.Roles = append(u.Roles, name)
		}
	}
	return nil
}

// IdentityHTTPClient asks the identity service about the requester named in
// X-User-ID.
type IdentityHTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIdentityHTTPClient(baseURL string, httpClient *http.Client) *IdentityHTTPClient {
	return &IdentityHTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func DefaultIdentityHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

var identityStatusErrors = map[int]error{
	http.StatusNotFound:     ErrNotFound,
	http.StatusUnauthorized: ErrUnauthorized,
	http.StatusForbidden:    ErrUnauthorized,
}

func (c *IdentityHTTPClient) GetMe(ctx context.Context, userID uuid.UUID) (IdentityUser, error) {
	if c.baseURL == "" {
		return IdentityUser{}, ErrInvalidInput
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return IdentityUser{}, errors.Wrap(err, "build identity request")
	}
	req.Header.Set("X-User-ID", userID.String())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return IdentityUser{}, errors.Wrap(err, "call identity service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if mapped, ok := identityStatusErrors[resp.StatusCode]; ok {
			return IdentityUser{}, mapped
		}
		return IdentityUser{}, errors.Errorf("identity service answered %d", resp.StatusCode)
	}

	var user IdentityUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return IdentityUser{}, errors.Wrap(err, "decode identity profile")
	}
	if user.ID != userID {
		return IdentityUser{}, errors.Errorf("identity profile is for %s, asked for %s", user.ID, userID)
	}
	return user, nil
}
