package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/freshpress/portal-bff-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Auth endpoints (proxied, mostly unauthenticated)
// ============================================================

func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "Backend.Login")
	defer span.End()

	var result domain.LoginResult
	env, err := c.sendJSON(ctx, http.MethodPost, "", "/api/auth/login", req, &result)
	if err != nil {
		return nil, err
	}
	if !env.OK() || result.Token == "" {
		return nil, &domain.ErrUnauthorized{Message: env.ErrMessage("invalid email or password")}
	}
	return &result, nil
}

func (c *Client) Signup(ctx context.Context, req *domain.SignupRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "Backend.Signup")
	defer span.End()

	env, err := c.sendJSON(ctx, http.MethodPost, "", "/api/auth/signup", req, nil)
	if err != nil {
		return "", err
	}
	return env.ErrMessage("verification email sent"), nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	ctx, span := tracer.Start(ctx, "Backend.VerifyEmail")
	defer span.End()

	env, err := c.getJSON(ctx, "", "/api/auth/verify/"+url.PathEscape(token), nil)
	if err != nil {
		return "", err
	}
	if !env.OK() {
		return "", &domain.ErrValidation{Field: "token", Message: env.ErrMessage("invalid or expired verification link")}
	}
	return env.ErrMessage("email verified"), nil
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "Backend.ResendVerification")
	defer span.End()

	_, err := c.sendJSON(ctx, http.MethodPost, "", "/api/auth/resend-verification",
		&domain.ResendVerificationRequest{Email: email}, nil)
	return err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "Backend.ForgotPassword")
	defer span.End()

	_, err := c.sendJSON(ctx, http.MethodPost, "", "/api/auth/forgot-password",
		&domain.ForgotPasswordRequest{Email: email}, nil)
	return err
}

// ============================================================
// Profile endpoints (authenticated)
// ============================================================

func (c *Client) GetProfile(ctx context.Context, credential string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Backend.GetProfile")
	defer span.End()

	var profile domain.Profile
	if _, err := c.getJSON(ctx, credential, "/api/auth/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile sends a multipart update: text fields plus an optional
// profile picture part.
func (c *Client) UpdateProfile(ctx context.Context, credential string, upd *domain.ProfileUpdate) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Backend.UpdateProfile")
	defer span.End()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"fullName":    upd.FullName,
		"phoneNumber": upd.PhoneNumber,
		"address":     upd.Address,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if len(upd.Picture) > 0 {
		name := upd.PictureName
		if name == "" {
			name = "profile-picture"
		}
		part, err := mw.CreateFormFile("profilePicture", name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(upd.Picture); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/auth/update-profile", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+credential)

	var profile domain.Profile
	_, err = c.cb.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("backend: profile update failed", zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := readAll(resp)
		if err != nil {
			return nil, err
		}
		env, _ := ParseEnvelope(raw)

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &domain.ErrSessionExpired{}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &domain.ErrBackendRejected{Status: resp.StatusCode, Message: env.ErrMessage("")}
		}
		if err := env.PayloadInto(&profile); err != nil {
			return nil, fmt.Errorf("decode updated profile: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, c.mapError("PUT /api/auth/update-profile", err)
	}
	return &profile, nil
}

func readAll(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
