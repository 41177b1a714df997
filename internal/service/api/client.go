package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/qa-forum/frontend/internal/config"
	"github.com/zhouzirui/qa-forum/frontend/internal/logger"
	"github.com/zhouzirui/qa-forum/frontend/internal/metrics"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
)

const maxBodyBytes = 1 << 20

// Client talks to the external forum API. Every failure it returns is a
// *forum.Error so callers can put it straight into the error slot.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewClient builds a client for the configured base URL. m may be nil.
func NewClient(cfg config.APIConfig, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		metrics:    m,
		log:        logger.Component("api"),
	}
}

// ListQuestions fetches every question. Records without an id are
// dropped; a missing status defaults to Pending.
func (c *Client) ListQuestions(ctx context.Context) ([]forum.Question, error) {
	var raw []forum.Question
	if err := c.do(ctx, "list_questions", http.MethodGet, "/questions", nil, &raw, forum.MsgLoadFailed); err != nil {
		return nil, err
	}

	questions := raw[:0]
	for i := range raw {
		if err := raw[i].Normalize(); err != nil {
			c.log.Warn().Err(err).Int("index", i).Msg("dropping unusable snapshot record")
			continue
		}
		questions = append(questions, raw[i])
	}
	return questions, nil
}

// CreateQuestion posts a new question and returns the stored record.
func (c *Client) CreateQuestion(ctx context.Context, message string) (forum.Question, error) {
	var q forum.Question
	body := map[string]string{"message": message}
	if err := c.do(ctx, "create_question", http.MethodPost, "/questions", body, &q, forum.MsgSubmitFailed); err != nil {
		return forum.Question{}, err
	}
	if q.Status == "" {
		q.Status = forum.StatusPending
	}
	return q, nil
}

// CreateReply posts a reply under the given question.
func (c *Client) CreateReply(ctx context.Context, questionID forum.ID, message string) (forum.Reply, error) {
	var reply forum.Reply
	body := map[string]string{"message": message}
	path := "/questions/" + url.PathEscape(string(questionID)) + "/replies"
	if err := c.do(ctx, "create_reply", http.MethodPost, path, body, &reply, forum.MsgReplyFailed); err != nil {
		return forum.Reply{}, err
	}
	return reply, nil
}

// UpdateStatus changes a question's status. The response body is ignored.
func (c *Client) UpdateStatus(ctx context.Context, questionID forum.ID, status forum.Status) error {
	query := url.Values{"status": {string(status)}}
	path := "/questions/" + url.PathEscape(string(questionID)) + "/status?" + query.Encode()
	return c.do(ctx, "update_status", http.MethodPut, path, nil, nil, forum.MsgStatusFailed)
}

// Login exchanges credentials for the user's identity.
func (c *Client) Login(ctx context.Context, form account.LoginForm) (account.LoginResult, error) {
	var result account.LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "/login", form, &result, account.MsgLoginFailed); err != nil {
		return account.LoginResult{}, err
	}
	return result, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, form account.RegisterForm) (account.RegisterResult, error) {
	var result account.RegisterResult
	if err := c.do(ctx, "register", http.MethodPost, "/register", form, &result, account.MsgRegisterFailed); err != nil {
		return account.RegisterResult{}, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any, fallback string) (err error) {
	start := time.Now()
	defer func() {
		c.observe(op, start, err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return forum.Transport(err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Str("request_id", requestID).Msg("request failed")
		return forum.Transport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return forum.Transport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fallback
		}
		c.log.Info().Str("op", op).Str("request_id", requestID).Int("status", resp.StatusCode).Msg("request rejected")
		return forum.Server(msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Error().Err(err).Str("op", op).Str("request_id", requestID).Msg("unreadable response")
		return &forum.Error{Kind: forum.KindServer, Message: forum.MsgUnreadableResponse, Err: err}
	}
	return nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if kind := forum.KindOf(err); kind != 0 {
		outcome = kind.String()
	} else if err != nil {
		outcome = "error"
	}
	c.metrics.APIRequests.WithLabelValues(op, outcome).Inc()
	c.metrics.APIDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
