package etl

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BartekS5/zabbix-audit/pkg/logger"
	"github.com/BartekS5/zabbix-audit/pkg/models"
)

type SplunkOptions struct {
	BaseURL  string
	Username string
	Password string
	Insecure bool
	Timeout  time.Duration
}

// SplunkSink talks to the Splunk management API with a session key.
type SplunkSink struct {
	baseURL    *url.URL
	client     *http.Client
	sessionKey string
	log        *logger.Logger
}

// NewSplunkSink logs in and returns a session bound to the returned key.
func NewSplunkSink(ctx context.Context, opts SplunkOptions, log *logger.Logger) (*SplunkSink, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid splunk url: %w", ErrConnectivity, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	s := &SplunkSink{
		baseURL: base,
		client:  &http.Client{Timeout: opts.Timeout, Transport: transport},
		log:     log,
	}
	if err := s.login(ctx, opts.Username, opts.Password); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SplunkSink) login(ctx context.Context, user, pass string) error {
	form := url.Values{"username": {user}, "password": {pass}, "output_mode": {"json"}}
	resp, err := s.do(ctx, http.MethodPost, "/services/auth/login", nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return fmt.Errorf("%w: splunk login: %w", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: splunk login: %s", ErrConnectivity, statusError(resp))
	}

	var body struct {
		SessionKey string `json:"sessionKey"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: splunk login response: %w", ErrConnectivity, err)
	}
	if body.SessionKey == "" {
		return fmt.Errorf("%w: splunk login returned no session key", ErrConnectivity)
	}
	s.sessionKey = body.SessionKey
	return nil
}

// ResolveStream returns the named index, creating it when absent.
func (s *SplunkSink) ResolveStream(ctx context.Context, name string) (Stream, error) {
	q := url.Values{"output_mode": {"json"}}
	resp, err := s.do(ctx, http.MethodGet, "/services/data/indexes/"+url.PathEscape(name), q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("%w: looking up index %s: %w", ErrConnectivity, name, err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		resp.Body.Close()
		return &splunkIndex{sink: s, name: name}, nil
	case http.StatusNotFound:
		resp.Body.Close()
	default:
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: looking up index %s: %s", ErrConnectivity, name, statusError(resp))
	}

	form := url.Values{"name": {name}, "output_mode": {"json"}}
	resp, err = s.do(ctx, http.MethodPost, "/services/data/indexes", nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, fmt.Errorf("%w: creating index %s: %w", ErrConnectivity, name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: creating index %s: %s", ErrConnectivity, name, statusError(resp))
	}

	s.log.Infof("Created splunk index %s", name)
	return &splunkIndex{sink: s, name: name}, nil
}

func (s *SplunkSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *SplunkSink) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := *s.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.sessionKey != "" {
		req.Header.Set("Authorization", "Splunk "+s.sessionKey)
	}
	return s.client.Do(req)
}

type splunkIndex struct {
	sink *SplunkSink
	name string
}

func (i *splunkIndex) Name() string { return i.name }

func (i *splunkIndex) OpenChannel(_ context.Context, meta models.EventMetadata) (Channel, error) {
	q := url.Values{"index": {i.name}}
	if meta.Source != "" {
		q.Set("source", meta.Source)
	}
	if meta.SourceType != "" {
		q.Set("sourcetype", meta.SourceType)
	}
	if meta.Host != "" {
		q.Set("host", meta.Host)
	}
	return &splunkChannel{sink: i.sink, query: q}, nil
}

// splunkChannel submits each event to the simple receiver, so every Send is
// acknowledged individually.
type splunkChannel struct {
	sink   *SplunkSink
	query  url.Values
	closed bool
}

func (c *splunkChannel) Send(ctx context.Context, event []byte) error {
	if c.closed {
		return fmt.Errorf("splunk channel closed")
	}
	resp, err := c.sink.do(ctx, http.MethodPost, "/services/receivers/simple", c.query, bytes.NewReader(event), "text/plain")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("splunk receiver: %s", statusError(resp))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *splunkChannel) Close() error {
	c.closed = true
	return nil
}

func statusError(resp *http.Response) string {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
