package brain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fundbridge/pkg/errors"
)

func envelopeJSON(success bool, data string, code, message string) string {
	if success {
		return `{"success":true,"data":` + data + `}`
	}
	return `{"success":false,"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestSendMessageSuccess(t *testing.T) {
	var gotAuth string
	var gotBody SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, envelopeJSON(true, `{"id":"m123","sender_id":"u1","receiver_id":"u2","content":"hello","status":"delivered"}`, "", ""))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-abc")
	msg, err := c.SendMessage(context.Background(), SendMessageRequest{ReceiverID: "u2", Content: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "u2", gotBody.ReceiverID)
	assert.Equal(t, "m123", msg.ID)
	assert.Equal(t, "delivered", msg.Status)
}

func TestServerErrorsAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, envelopeJSON(false, "", "INTERNAL_ERROR", "upstream exploded"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.SendMessage(context.Background(), SendMessageRequest{ReceiverID: "u2", Content: "hello"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "TRANSIENT"))
	assert.True(t, Retryable(err))
}

func TestNonJSONServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "<html>gateway timeout</html>")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.SendMessage(context.Background(), SendMessageRequest{ReceiverID: "u2", Content: "hello"})
	require.Error(t, err)
	assert.True(t, Retryable(err))
}

func TestRejectionIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, envelopeJSON(false, "", "UNSUPPORTED_FILE_TYPE", "unsupported file type"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.UploadAttachment(context.Background(), "tool.exe", "application/x-msdownload", strings.NewReader("MZ"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "SERVER_REJECTED"))
	assert.False(t, Retryable(err))
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestUnauthorizedAndRateLimitMapToTheirCodes(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, envelopeJSON(false, "", "", "no"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.GetThreads(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "UNAUTHORIZED"))

	status = http.StatusTooManyRequests
	_, err = c.GetThreads(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "TOO_MANY_REQUESTS"))
	assert.False(t, Retryable(err))
}

func TestTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "tok")
	_, err := c.GetThreads(context.Background())
	require.Error(t, err)
	assert.True(t, Retryable(err))
}

func TestGetMessagesPaginationQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "u2", q.Get("other_user_id"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "20", q.Get("page_size"))
		io.WriteString(w, envelopeJSON(true, `{"items":[{"id":"m1"},{"id":"m2"}],"total":42,"page":2,"page_size":20}`, "", ""))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	msgs, err := c.GetMessages(context.Background(), "u2", 2, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
}

func TestUploadAttachmentMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "application/pdf", r.FormValue("content_type"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "deck.pdf", header.Filename)
		content, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.7", string(content))

		io.WriteString(w, envelopeJSON(true, `{"id":"att-1","file_name":"deck.pdf","content_type":"application/pdf"}`, "", ""))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	att, err := c.UploadAttachment(context.Background(), "deck.pdf", "application/pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "att-1", att.ID)
}

func TestMintDevTokenStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/dev/token" {
			io.WriteString(w, envelopeJSON(true, `{"token":"tok-minted"}`, "", ""))
			return
		}
		assert.Equal(t, "Bearer tok-minted", r.Header.Get("Authorization"))
		io.WriteString(w, envelopeJSON(true, `{"items":[]}`, "", ""))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	token, err := c.MintDevToken(context.Background(), "me", "fund_manager")
	require.NoError(t, err)
	assert.Equal(t, "tok-minted", token)

	_, err = c.GetThreads(context.Background())
	require.NoError(t, err)
}

func TestTokenExpiresWithin(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	mint := func(exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "me",
			"exp": exp.Unix(),
		})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return signed
	}

	assert.False(t, TokenExpiresWithin(mint(now.Add(time.Hour)), time.Minute, now))
	assert.True(t, TokenExpiresWithin(mint(now.Add(30*time.Second)), time.Minute, now))
	assert.True(t, TokenExpiresWithin(mint(now.Add(-time.Hour)), time.Minute, now))
	assert.True(t, TokenExpiresWithin("not-a-jwt", time.Minute, now))
}
