package alias

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/tests/mocks"
)

// TestParseInput_Shorthand 测试简写 URL 补全为 https
func TestParseInput_Shorthand(t *testing.T) {
	u, err := parseInput("alice.room.com")
	require.NoError(t, err)
	assert.Equal(t, "https://alice.room.com", u.String())

	u, err = parseInput("room.com/alice")
	require.NoError(t, err)
	assert.Equal(t, "https://room.com/alice", u.String())

	_, err = parseInput("  ")
	assert.ErrorIs(t, err, ErrMissingURI)
}

// TestParseSSBURI 测试 ssb:experimental URI
func TestParseSSBURI(t *testing.T) {
	f := newFixture(t)

	opts, err := ParseSSBURI(f.opts.URI())
	require.NoError(t, err)
	assert.Equal(t, f.opts, *opts)
	assert.NoError(t, opts.Validate())
	assert.True(t, VerifyRegistration(opts.RoomID, opts.UserID, opts.Alias, opts.Signature))
}

// TestParseSSBURI_Rejects 测试非法 ssb URI
func TestParseSSBURI_Rejects(t *testing.T) {
	_, err := ParseSSBURI("ssb:message/sha256/abc?action=consume-alias")
	assert.ErrorContains(t, err, "isnt experimental")

	_, err = ParseSSBURI("ssb:experimental?action=start-http-auth")
	assert.ErrorContains(t, err, "isnt consume-alias")

	_, err = ParseSSBURI("ftp://room.example/alice")
	assert.ErrorIs(t, err, ErrUnsupportedURI)
}

func newURIService(t *testing.T, srv *httptest.Server) *Service {
	t.Helper()
	f := newFixture(t)
	return NewService(f.local, &countingRooms{}, mocks.NewMockRegistry(), config.DefaultAliasConfig(),
		WithHTTPClient(srv.Client()))
}

// TestResolveURI_HTTP 测试通过 HTTP 获取别名信息
func TestResolveURI_HTTP(t *testing.T) {
	f := newFixture(t)
	reqs := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":             "successful",
			"multiserverAddress": f.opts.MultiserverAddress,
			"roomId":             string(f.opts.RoomID),
			"userId":             string(f.opts.UserID),
			"alias":              f.opts.Alias,
			"signature":          f.opts.Signature,
		})
	}))
	defer srv.Close()

	opts, err := newURIService(t, srv).ResolveURI(context.Background(), srv.URL+"/alice")
	require.NoError(t, err)
	assert.Equal(t, f.opts, *opts)
	req := <-reqs
	assert.Equal(t, "json", req.URL.Query().Get("encoding"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
}

// TestResolveURI_HTTPErrorEnvelope 测试服务返回的错误原样返回
func TestResolveURI_HTTPErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "failed",
			"error":  "alias not found",
		})
	}))
	defer srv.Close()

	_, err := newURIService(t, srv).ResolveURI(context.Background(), srv.URL+"/alice")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "alias not found", err.Error())
}

// TestResolveURI_HTTPStatus 测试非 2xx 状态码
func TestResolveURI_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newURIService(t, srv).ResolveURI(context.Background(), srv.URL+"/alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed (404) to get alias from "+srv.URL+"/alice?encoding=json")
}

// TestResolveURI_Unsupported 测试不支持的协议
func TestResolveURI_Unsupported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newURIService(t, srv).ResolveURI(context.Background(), "mailto:alice@room.example")
	assert.ErrorIs(t, err, ErrUnsupportedURI)
}
