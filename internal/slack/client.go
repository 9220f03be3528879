// Package slack adapts the slack-go Web API client and Events API parser to
// the calls the bot makes: auth.test, users.info and chat.postMessage.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the public Slack Web API root.
const DefaultAPIURL = "https://slack.com/api/"

// Web API methods the bot calls.
const (
	MethodAuthTest    = "auth.test"
	MethodUsersInfo   = "users.info"
	MethodPostMessage = "chat.postMessage"
)

// Options configures a Client. A rate of zero or less leaves that method
// unthrottled.
type Options struct {
	Token            string
	APIURL           string
	Timeout          time.Duration
	PostRatePerSec   float64
	LookupRatePerSec float64
}

// Client calls the Slack Web API. Each call is attempted once; calls to
// different methods are paced independently.
type Client struct {
	api      *slackapi.Client
	limiters map[string]*rate.Limiter
}

// NewClient builds a client from opts.
func NewClient(opts Options) *Client {
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	// slack-go appends the method name directly
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	httpClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	return &Client{
		api: slackapi.New(opts.Token,
			slackapi.OptionAPIURL(apiURL),
			slackapi.OptionHTTPClient(httpClient),
		),
		limiters: map[string]*rate.Limiter{
			MethodUsersInfo:   newLimiter(opts.LookupRatePerSec),
			MethodPostMessage: newLimiter(opts.PostRatePerSec),
		},
	}
}

func newLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

func (c *Client) wait(ctx context.Context, method string) error {
	l, ok := c.limiters[method]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}

// AuthTest returns the user ID the token belongs to.
func (c *Client) AuthTest(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("slack %s: %w", MethodAuthTest, err)
	}
	return resp.UserID, nil
}

// UserRealName looks up the display name of userID via users.info.
func (c *Client) UserRealName(ctx context.Context, userID string) (string, error) {
	if err := c.wait(ctx, MethodUsersInfo); err != nil {
		return "", err
	}

	start := time.Now()
	user, err := c.api.GetUserInfoContext(ctx, userID)
	slog.Debug("Slack API call completed",
		"method", MethodUsersInfo,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("slack %s: %w", MethodUsersInfo, err)
	}

	name := user.RealName
	if name == "" {
		name = user.Profile.RealName
	}
	if name == "" {
		return "", fmt.Errorf("users.info returned empty real_name for %s", userID)
	}
	return name, nil
}

// PostMessage sends text to channel via chat.postMessage.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	if err := c.wait(ctx, MethodPostMessage); err != nil {
		return err
	}

	start := time.Now()
	_, _, err := c.api.PostMessageContext(ctx, channel, slackapi.MsgOptionText(text, false))
	slog.Debug("Slack API call completed",
		"method", MethodPostMessage,
		"channel", channel,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("slack %s: %w", MethodPostMessage, err)
	}
	return nil
}
