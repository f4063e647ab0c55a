// Package remote is the thin HTTP client over the SpotIt service contract.
// It owns no state beyond configuration; the session controller decides what
// to do with responses.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"spotit/api"

	"github.com/apex/log"
)

type Client struct {
	baseURL       string
	publicBaseURL string
	httpClient    *http.Client
}

// NewClient builds a client for the service at baseURL. publicBaseURL is the
// host report image paths are composed against; when empty the service URL
// doubles as the image host.
func NewClient(baseURL, publicBaseURL string) *Client {
	if publicBaseURL == "" {
		publicBaseURL = baseURL
	}
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) PublicBaseURL() string {
	return c.publicBaseURL
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Infof("[API] %s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("[API] %s %s failed: %v", method, path, err)
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	log.Infof("[API] %s %s -> %s", method, path, resp.Status)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", method, path, serverMessage(data, resp.Status))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) postJSON(ctx context.Context, path, token string, args interface{}, out interface{}) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, token, bytes.NewReader(payload), "application/json", out)
}

// serverMessage digs a displayable message out of an error body, falling back
// to the HTTP status line.
func serverMessage(data []byte, status string) string {
	var e api.ErrorResp
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	var m api.LoginResp
	if err := json.Unmarshal(data, &m); err == nil && m.Message != "" {
		return m.Message
	}
	return status
}

// Login authenticates with an email or phone identifier. The identifier is
// treated as an email when it contains '@', matching the app's login form.
func (c *Client) Login(ctx context.Context, identifier, password string) (*api.LoginResp, error) {
	args := api.LoginArgs{Password: password}
	if strings.Contains(identifier, "@") {
		args.Email = identifier
	} else {
		args.Phone = identifier
	}

	var resp api.LoginResp
	if err := c.postJSON(ctx, api.EndPointLogin, "", args, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.User == nil {
		msg := resp.Message
		if msg == "" {
			msg = "login failed"
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, args api.RegisterArgs) error {
	return c.postJSON(ctx, api.EndPointRegister, "", args, nil)
}

// SubmitReport uploads one photographed issue as a multipart form with the
// image bytes, coordinates and client timestamp in epoch milliseconds.
func (c *Client) SubmitReport(ctx context.Context, token string, image []byte, latitude, longitude float64, timestamp int64) (*api.SubmitResp, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="issue.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := w.WriteField("latitude", strconv.FormatFloat(latitude, 'f', -1, 64)); err != nil {
		return nil, err
	}
	if err := w.WriteField("longitude", strconv.FormatFloat(longitude, 'f', -1, 64)); err != nil {
		return nil, err
	}
	if err := w.WriteField("timestamp", strconv.FormatInt(timestamp, 10)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var resp api.SubmitResp
	if err := c.do(ctx, http.MethodPost, api.EndPointReports, token, &buf, w.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListReports(ctx context.Context, token string) ([]api.Report, error) {
	var resp api.ReportListResp
	if err := c.do(ctx, http.MethodGet, api.EndPointReports, token, nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Reports == nil {
		return []api.Report{}, nil
	}
	return resp.Reports, nil
}

func (c *Client) ListRewards(ctx context.Context) ([]api.Reward, error) {
	var resp api.RewardListResp
	if err := c.do(ctx, http.MethodGet, api.EndPointRewards, "", nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Rewards == nil {
		return []api.Reward{}, nil
	}
	return resp.Rewards, nil
}

func (c *Client) MyRewards(ctx context.Context, token string) ([]api.Reward, error) {
	var resp api.RewardListResp
	if err := c.do(ctx, http.MethodGet, api.EndPointMyRewards, token, nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Rewards == nil {
		return []api.Reward{}, nil
	}
	return resp.Rewards, nil
}

func (c *Client) BuyReward(ctx context.Context, token string, rewardID int64) (*api.BuyRewardResp, error) {
	var resp api.BuyRewardResp
	if err := c.postJSON(ctx, api.EndPointBuyReward, token, api.BuyRewardArgs{RewardID: rewardID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterPushToken uploads the device push token so the service can notify
// the user about status changes.
func (c *Client) RegisterPushToken(ctx context.Context, token, pushToken string) error {
	return c.postJSON(ctx, api.EndPointPushToken, token, api.PushTokenArgs{Token: pushToken}, nil)
}
