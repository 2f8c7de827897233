package fetcher

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/net/publicsuffix"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"

// Options configures a fetch session
type Options struct {
	Timeout      time.Duration
	MaxRetries   int           // retries after the first attempt
	RetryWait    time.Duration // initial backoff
	RetryMaxWait time.Duration // backoff ceiling
	RelaxedTLS   bool          // skip verification and accept weak ciphers
	Headers      map[string]string
	UserAgent    string
}

// DefaultOptions mirrors the defaults used against the admissions endpoints.
func DefaultOptions() Options {
	return Options{
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryWait:    time.Second,
		RetryMaxWait: 10 * time.Second,
		RelaxedTLS:   true,
		UserAgent:    defaultUserAgent,
	}
}

// retryableStatus are the statuses treated as transient server trouble.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsRetryableStatus reports whether code is retried by the session.
func IsRetryableStatus(code int) bool {
	return retryableStatus[code]
}

// Result is a successfully fetched JSON document.
type Result struct {
	URL      string
	Status   int
	Attempts int
	Body     json.RawMessage
}

// Session owns one HTTP client and its cookie jar for the lifetime of a run.
// It is not safe for concurrent use; runs are sequential.
type Session struct {
	client *resty.Client
	jar    http.CookieJar
	opts   Options
}

// NewSession builds a session from opts.
func NewSession(opts Options) (*Session, error) {
	if opts.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", opts.MaxRetries)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetLogger(restyLogger{})
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", "application/json, text/javascript, */*; q=0.01")
	client.SetHeaders(opts.Headers)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.RelaxedTLS {
		client.SetTLSClientConfig(relaxedTLSConfig())
	}

	client.SetRetryCount(opts.MaxRetries)
	client.SetRetryWaitTime(opts.RetryWait)
	client.SetRetryMaxWaitTime(opts.RetryMaxWait)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r != nil && IsRetryableStatus(r.StatusCode())
	})
	client.AddRetryHook(func(r *resty.Response, err error) {
		if err != nil {
			log.Warnf("[FETCH] retrying after error: %v", err)
			return
		}
		log.Warnf("[FETCH] retrying %s after status %d (attempt %d)", r.Request.URL, r.StatusCode(), r.Request.Attempt)
	})

	return &Session{client: client, jar: jar, opts: opts}, nil
}

// Fetch issues a GET for rawURL and returns the JSON body. Transient statuses
// and transport errors are retried with exponential backoff up to the retry
// budget. Every other outcome is reported as a *Failure.
func (s *Session) Fetch(ctx context.Context, rawURL string, headers map[string]string) (*Result, error) {
	req := s.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(rawURL)
	attempts := 1
	if resp != nil && resp.Request != nil && resp.Request.Attempt > 0 {
		attempts = resp.Request.Attempt
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Failure{Kind: KindTransientNetwork, URL: rawURL, Attempts: attempts, Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		kind := KindPermanentHTTP
		if IsRetryableStatus(status) {
			kind = KindTransientNetwork
		}
		return nil, &Failure{Kind: kind, URL: rawURL, Status: status, Attempts: attempts}
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, &Failure{
			Kind:     KindMalformedResponse,
			URL:      rawURL,
			Status:   status,
			Attempts: attempts,
			Err:      fmt.Errorf("body is not valid JSON (%d bytes)", len(body)),
		}
	}

	log.Debugf("[FETCH] GET %s -> %d (%d bytes, %d attempts)", rawURL, status, len(body), attempts)
	return &Result{URL: rawURL, Status: status, Attempts: attempts, Body: json.RawMessage(body)}, nil
}

// Cookies returns the cookies the session would send to rawURL.
func (s *Session) Cookies(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return s.jar.Cookies(u)
}

// relaxedTLSConfig accepts self-signed certificates and the legacy cipher
// suites some provincial servers still negotiate. Only used against known
// endpoints.
func relaxedTLSConfig() *tls.Config {
	suites := make([]uint16, 0, len(tls.CipherSuites())+len(tls.InsecureCipherSuites()))
	for _, cs := range tls.CipherSuites() {
		suites = append(suites, cs.ID)
	}
	for _, cs := range tls.InsecureCipherSuites() {
		suites = append(suites, cs.ID)
	}
	return &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec
		MinVersion:         tls.VersionTLS10,
		CipherSuites:       suites,
	}
}

// restyLogger routes resty's internal messages through the app logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) { log.Errorf("[FETCH] "+format, v...) }
func (restyLogger) Warnf(format string, v ...interface{})  { log.Warnf("[FETCH] "+format, v...) }
func (restyLogger) Debugf(format string, v ...interface{}) { log.Debugf("[FETCH] "+format, v...) }
