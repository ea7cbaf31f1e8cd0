package alias

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/dep2p/go-roomclient/internal/core/msaddr"
	"github.com/dep2p/go-roomclient/pkg/types"
)

const (
	// URIAction ssb URI 中表示消费别名的 action
	URIAction = "consume-alias"

	// maxResponseSize 别名服务响应体上限
	maxResponseSize = 1 << 20
)

// shorthandURL alice.room.com 或 room.com/alice
var shorthandURL = regexp.MustCompile(`^(\w+\.\w+\.\w+|\w+\.\w+/\w+)$`)

// ============================================================================
//                              ConsumeOpts
// ============================================================================

// ConsumeOpts 消费别名所需的参数
type ConsumeOpts struct {
	MultiserverAddress string       `json:"multiserverAddress"`
	RoomID             types.FeedID `json:"roomId"`
	UserID             types.FeedID `json:"userId"`
	Alias              string       `json:"alias"`
	Signature          string       `json:"signature"`
}

// Validate 校验参数格式，不做任何 I/O
func (o ConsumeOpts) Validate() error {
	if !msaddr.IsAddress(o.MultiserverAddress) {
		return &ValidationError{Field: "multiserverAddress", Value: o.MultiserverAddress}
	}
	if !o.RoomID.Valid() {
		return &ValidationError{Field: "roomId", Value: string(o.RoomID)}
	}
	if !o.UserID.Valid() {
		return &ValidationError{Field: "userId", Value: string(o.UserID)}
	}
	if o.Alias == "" {
		return &ValidationError{Field: "alias", Value: o.Alias}
	}
	if o.Signature == "" {
		return &ValidationError{Field: "signature", Value: o.Signature}
	}
	return nil
}

// Registration 返回对应的注册声明
func (o ConsumeOpts) Registration() Registration {
	return Registration{Room: o.RoomID, User: o.UserID, Alias: o.Alias}
}

// URI 编码为 ssb:experimental URI
func (o ConsumeOpts) URI() string {
	q := url.Values{}
	q.Set("action", URIAction)
	q.Set("multiserverAddress", o.MultiserverAddress)
	q.Set("roomId", string(o.RoomID))
	q.Set("userId", string(o.UserID))
	q.Set("alias", o.Alias)
	q.Set("signature", o.Signature)
	return "ssb:experimental?" + q.Encode()
}

// ============================================================================
//                              URI 解析
// ============================================================================

// parseInput 解析输入，简写形式补全为 https URL
func parseInput(input string) (*url.URL, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrMissingURI
	}
	if shorthandURL.MatchString(input) {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("alias: parse URI: %w", err)
	}
	return u, nil
}

// ParseSSBURI 离线解析 ssb:experimental?action=consume-alias&... URI
func ParseSSBURI(input string) (*ConsumeOpts, error) {
	u, err := parseInput(input)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ssb" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURI, input)
	}
	return fromSSBURI(u, input)
}

func fromSSBURI(u *url.URL, input string) (*ConsumeOpts, error) {
	if u.Opaque != "experimental" && u.Host != "experimental" && strings.TrimPrefix(u.Path, "/") != "experimental" {
		return nil, fmt.Errorf("alias: SSB URI input isnt experimental: %s", input)
	}
	q := u.Query()
	if q.Get("action") != URIAction {
		return nil, fmt.Errorf("alias: SSB URI input isnt %s: %s", URIAction, input)
	}
	return &ConsumeOpts{
		MultiserverAddress: q.Get("multiserverAddress"),
		RoomID:             types.FeedID(q.Get("roomId")),
		UserID:             types.FeedID(q.Get("userId")),
		Alias:              q.Get("alias"),
		Signature:          q.Get("signature"),
	}, nil
}

// aliasResponse 别名服务的 JSON 响应
type aliasResponse struct {
	ConsumeOpts
	Status *string `json:"status"`
	Error  string  `json:"error"`
}

func (r *aliasResponse) failed() bool {
	return r.Status != nil && *r.Status != "successful" && r.Error != ""
}

// fetch 以 JSON 编码请求 http(s) 别名页面
func (s *Service) fetch(ctx context.Context, u *url.URL) (*ConsumeOpts, error) {
	q := u.Query()
	q.Set("encoding", "json")
	u.RawQuery = q.Encode()
	jsonURL := u.String()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.HTTPTimeout.Duration())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jsonURL, nil)
	if err != nil {
		return nil, fmt.Errorf("alias: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alias: get %s: %w", jsonURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("alias: failed (%d) to get alias from %s", resp.StatusCode, jsonURL)
	}

	var body aliasResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return nil, fmt.Errorf("alias: decode response from %s: %w", jsonURL, err)
	}
	if body.failed() {
		return nil, &RemoteError{Message: body.Error}
	}
	logger.Debug("获取别名信息", "url", jsonURL, "alias", body.Alias)
	return &body.ConsumeOpts, nil
}

// ResolveURI 把别名 URI 解析为消费参数
//
// 支持 http(s) URL、简写 URL（alice.room.com、room.com/alice）
// 以及 ssb:experimental?action=consume-alias URI。
func (s *Service) ResolveURI(ctx context.Context, input string) (*ConsumeOpts, error) {
	u, err := parseInput(input)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(u.Scheme, "http"):
		return s.fetch(ctx, u)
	case u.Scheme == "ssb":
		return fromSSBURI(u, input)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURI, input)
	}
}
