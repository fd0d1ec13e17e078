// Package auth implements the GitHub OAuth device flow used to obtain the
// token exchanged for Copilot API tokens.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"q/config"
)

const (
	ClientID       = "Iv1.b507a08c87ecfe98"
	DefaultBaseURL = "https://github.com"

	scope           = "read:user"
	defaultInterval = 5 * time.Second
	grantType       = "urn:ietf:params:oauth:grant-type:device_code"
)

var (
	ErrExpired      = errors.New("device code expired before authorization")
	ErrAccessDenied = errors.New("access denied")

	errPending = errors.New("authorization pending")
)

// DeviceCode is GitHub's answer to a device authorization request.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// DeviceFlow talks to GitHub's device authorization endpoints. Interval
// overrides the polling interval GitHub asks for.
type DeviceFlow struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client
	Interval   time.Duration
}

func NewDeviceFlow() *DeviceFlow {
	return &DeviceFlow{
		BaseURL:    DefaultBaseURL,
		ClientID:   ClientID,
		HTTPClient: http.DefaultClient,
	}
}

// RequestCode starts a device authorization.
func (f *DeviceFlow) RequestCode(ctx context.Context) (*DeviceCode, error) {
	form := url.Values{
		"client_id": {f.ClientID},
		"scope":     {scope},
	}

	var code DeviceCode
	if err := f.post(ctx, "/login/device/code", form, &code); err != nil {
		return nil, fmt.Errorf("failed to request device code: %w", err)
	}
	if code.DeviceCode == "" || code.UserCode == "" {
		return nil, errors.New("failed to request device code: incomplete response")
	}
	return &code, nil
}

// PollToken polls until the user authorizes the device, the code expires
// or ctx is done.
func (f *DeviceFlow) PollToken(ctx context.Context, code *DeviceCode) (string, error) {
	interval := f.Interval
	if interval <= 0 {
		interval = max(time.Duration(code.Interval)*time.Second, defaultInterval)
	}

	backoff := retry.NewConstant(interval)
	if code.ExpiresIn > 0 {
		backoff = retry.WithMaxDuration(time.Duration(code.ExpiresIn)*time.Second, backoff)
	}

	var token string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		t, err := f.exchange(ctx, code.DeviceCode)
		if errors.Is(err, errPending) {
			config.DebugLog.Debugf("[Auth] %v", err)
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		token = t
		return nil
	})

	switch {
	case errors.Is(err, errPending):
		return "", ErrExpired
	case err != nil:
		return "", err
	}
	return token, nil
}

func (f *DeviceFlow) exchange(ctx context.Context, deviceCode string) (string, error) {
	form := url.Values{
		"client_id":   {f.ClientID},
		"device_code": {deviceCode},
		"grant_type":  {grantType},
	}

	var resp tokenResponse
	if err := f.post(ctx, "/login/oauth/access_token", form, &resp); err != nil {
		return "", fmt.Errorf("failed to exchange device code: %w", err)
	}

	switch resp.Error {
	case "":
		if resp.AccessToken == "" {
			return "", errors.New("failed to exchange device code: empty token")
		}
		return resp.AccessToken, nil
	case "authorization_pending", "slow_down":
		return "", fmt.Errorf("%w: %s", errPending, resp.Error)
	case "expired_token":
		return "", ErrExpired
	case "access_denied":
		return "", ErrAccessDenied
	default:
		if resp.ErrorDescription != "" {
			return "", fmt.Errorf("%s: %s", resp.Error, resp.ErrorDescription)
		}
		return "", errors.New(resp.Error)
	}
}

func (f *DeviceFlow) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(f.BaseURL, "/")+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login runs the whole flow, printing the instructions to out, and hands
// the token to save.
func Login(ctx context.Context, flow *DeviceFlow, out io.Writer, save func(string) error) error {
	code, err := flow.RequestCode(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Authenticate with your GitHub account to use the CLI.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, code.VerificationURI)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Your User Code is: %s\n\n", code.UserCode)

	token, err := flow.PollToken(ctx, code)
	if err != nil {
		return err
	}

	if err := save(token); err != nil {
		return err
	}

	fmt.Fprintln(out, "Access granted. Token received.")
	return nil
}
