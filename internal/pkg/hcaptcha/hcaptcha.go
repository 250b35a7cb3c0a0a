package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultEndpoint = "https://hcaptcha.com/siteverify"

var ErrMissingToken = errors.New("hCaptcha token is empty")

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier checks hCaptcha tokens with the siteverify API.
type Verifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret:   secret,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to hCaptcha API: %w", err)
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode hCaptcha API response: %w", err)
	}

	if !response.Success {
		msg := "hCaptcha validation failed"
		if len(response.ErrorCodes) > 0 {
			msg += ": " + strings.Join(response.ErrorCodes, ", ")
		}
		return errors.New(msg)
	}
	return nil
}
