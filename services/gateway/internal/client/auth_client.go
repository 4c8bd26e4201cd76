package client

import (
	"context"

	"github.com/waste3d/learnhub/pkg/course"

	"github.com/go-resty/resty/v2"
)

type AuthClient struct {
	rest *resty.Client
}

func NewAuthClient(rest *resty.Client) *AuthClient {
	return &AuthClient{rest: rest}
}

type SignupInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     course.Role `json:"role,omitempty"`
}

type userResponse struct {
	User course.User `json:"user"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	User        course.User `json:"user"`
}

func (c *AuthClient) Signup(ctx context.Context, in SignupInput) (*course.User, error) {
	var out userResponse
	resp, err := request(ctx, c.rest, nil).SetBody(in).SetResult(&out).Post("/auth/signup")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login returns the catalog access token and the user it belongs to.
func (c *AuthClient) Login(ctx context.Context, email, password string) (string, *course.User, error) {
	var out loginResponse
	resp, err := request(ctx, c.rest, nil).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/auth/login")
	if err := check(resp, err); err != nil {
		return "", nil, err
	}
	return out.AccessToken, &out.User, nil
}

// Logout revokes the token held by creds.
func (c *AuthClient) Logout(ctx context.Context, creds Credentials) error {
	return check(request(ctx, c.rest, creds).Post("/auth/logout"))
}
