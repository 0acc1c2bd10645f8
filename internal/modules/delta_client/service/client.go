package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"vrz_bot/internal/models"
	"vrz_bot/internal/modules/config"
	"vrz_bot/pkg/logger"
)

const userAgent = "vrz-bot/1.0"

// Client is a signed REST client for Delta Exchange. One account per process.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Delta.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.Delta.BaseURL, "/"),
		apiKey:    cfg.Delta.APIKey,
		apiSecret: cfg.Delta.APISecret,
		now:       time.Now,
	}
}

// sign is hex(HMAC-SHA256(method + timestamp + path + query + body)).
func (c *Client) sign(method, ts, path, query, body string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(method + ts + path + query + body))
	return hex.EncodeToString(h.Sum(nil))
}

type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Context any    `json:"context,omitempty"`
}

// do sends the request and decodes envelope.result into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, auth bool, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = sonic.Marshal(body); err != nil {
			return errors.Wrapf(err, "marshal %s %s", method, path)
		}
	}

	qs := ""
	if len(query) > 0 {
		qs = "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+qs, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "new request %s %s", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if auth {
		ts := strconv.FormatInt(c.now().Unix(), 10)
		req.Header.Set("api-key", c.apiKey)
		req.Header.Set("timestamp", ts)
		req.Header.Set("signature", c.sign(method, ts, path, qs, string(payload)))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(models.ErrExternalService, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return errors.Wrapf(models.ErrExternalService, "%s %s: http %d: %s", method, path, resp.StatusCode, string(data))
	}

	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return errors.Wrapf(models.ErrExternalService, "%s %s: decode: %v", method, path, err)
	}
	if !env.Success {
		code := "unknown"
		if env.Error != nil {
			code = env.Error.Code
		}
		return errors.Wrapf(models.ErrExternalService, "%s %s: api error %s", method, path, code)
	}

	logger.Debug("delta %s %s ok", method, path)

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(env.Result, out); err != nil {
		return errors.Wrapf(models.ErrExternalService, "%s %s: decode result: %v", method, path, err)
	}
	return nil
}
