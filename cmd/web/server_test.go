package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lixi-studio/internal/envelope"
	"lixi-studio/internal/session"
	"lixi-studio/internal/studio"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\nrest-of-image")

type fakeGenerator struct {
	err error
}

func (g fakeGenerator) Generate(_ context.Context, req envelope.Request) (envelope.Image, error) {
	if g.err != nil {
		return envelope.Image{}, g.err
	}
	return envelope.Image{MimeType: "image/png", Data: []byte("generated-" + string(req.Side))}, nil
}

type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestServer(t *testing.T, gen studio.Generator) *testClient {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &server{
		studio: studio.New(studio.Options{
			Sessions:  session.NewStore(session.Options{}),
			Generator: gen,
			Logger:    logger,
		}),
		logger:         logger,
		requestTimeout: 5 * time.Second,
		static:         fstest.MapFS{"index.html": {Data: []byte("<html>studio</html>")}},
	}

	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *testClient) do(method, path string, body io.Reader, contentType string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *testClient) json(method, path string, in any, out any) int {
	c.t.Helper()
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		require.NoError(c.t, err)
		body = bytes.NewReader(raw)
	}
	resp := c.do(method, path, body, "application/json")
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *testClient) upload(path, contentType string, data []byte, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	resp := c.do(http.MethodPost, path, &buf, mw.FormDataContentType())
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestCatalogAndState(t *testing.T) {
	c := newTestServer(t, fakeGenerator{})

	var cat catalogResponse
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/catalog", nil, &cat))
	assert.Len(t, cat.Concepts, 2)
	assert.Len(t, cat.Wishes, 20)
	assert.Equal(t, envelope.CustomCharacterID, cat.CustomID)

	var st stateView
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/state", nil, &st))
	assert.Equal(t, "THAN_TAI", st.ActiveConcept)
	assert.Equal(t, envelope.SideFront, st.Side)
	assert.Empty(t, st.Preview)
}

func TestSelectionPersistsAcrossRequests(t *testing.T) {
	c := newTestServer(t, fakeGenerator{})

	var st stateView
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/characters/toggle", idRequest{ID: "lucky_cat"}, &st))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/vectors/toggle", idRequest{ID: "wave"}, &st))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/concept", idRequest{ID: "MA_DAO"}, &st))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/typography", idRequest{ID: "minimal"}, &st))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/wish", wishRequest{Index: 0}, &st))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/greeting", textRequest{Text: " Phát tài "}, &st))

	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/state", nil, &st))
	assert.Equal(t, []string{"god_wealth", "lucky_cat"}, st.SelectedCharacters)
	assert.Equal(t, []string{"blossoms", "wave"}, st.SelectedVectors)
	assert.Equal(t, "MA_DAO", st.ActiveConcept)
	assert.Equal(t, "minimal", st.SelectedTypography)
	assert.Equal(t, "Phát tài", st.GreetingText)

	// unknown ids are silently ignored
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/concept", idRequest{ID: "NOPE"}, &st))
	assert.Equal(t, "MA_DAO", st.ActiveConcept)
}

func TestBadRequests(t *testing.T) {
	c := newTestServer(t, fakeGenerator{})

	var apiErr apiError
	assert.Equal(t, http.StatusBadRequest, c.json(http.MethodPost, "/api/side", sideRequest{Side: "top"}, &apiErr))
	assert.NotEmpty(t, apiErr.Error)

	resp := c.do(http.MethodPost, "/api/concept", bytes.NewBufferString("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, http.StatusBadRequest, c.json(http.MethodPost, "/api/generate?side=top", nil, &apiErr))
}

func TestUploads(t *testing.T) {
	c := newTestServer(t, fakeGenerator{})

	var st stateView
	require.Equal(t, http.StatusOK, c.upload("/api/photo", "", pngMagic, &st))
	assert.Contains(t, st.SelectedCharacters, envelope.CustomCharacterID)
	assert.Contains(t, st.PersonalPhoto, "data:image/png;base64,")

	require.Equal(t, http.StatusOK, c.upload("/api/logo", "image/webp", pngMagic, &st))
	assert.Contains(t, st.Logo, "data:image/webp;base64,")

	var apiErr apiError
	assert.Equal(t, http.StatusBadRequest, c.upload("/api/logo", "text/plain", []byte("hello"), &apiErr))

	require.Equal(t, http.StatusOK, c.json(http.MethodDelete, "/api/photo", nil, &st))
	assert.Empty(t, st.PersonalPhoto)
	assert.NotContains(t, st.SelectedCharacters, envelope.CustomCharacterID)
	require.Equal(t, http.StatusOK, c.json(http.MethodDelete, "/api/logo", nil, &st))
	assert.Empty(t, st.Logo)
}

func TestGenerateAndDownload(t *testing.T) {
	c := newTestServer(t, fakeGenerator{})

	resp := c.do(http.MethodGet, "/api/download", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var st stateView
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/generate?side=back", nil, &st))
	assert.Equal(t, envelope.SideBack, st.Side)
	assert.NotEmpty(t, st.Results["THAN_TAI"][envelope.SideBack])
	assert.Empty(t, st.Results["THAN_TAI"][envelope.SideFront])
	assert.Equal(t, "DucPhuong_Lixi2026_THAN_TAI_back.png", st.DownloadName)

	resp = c.do(http.MethodGet, "/api/download", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="DucPhuong_Lixi2026_THAN_TAI_back.png"`, resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "generated-back", string(body))

	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/generate?side=both", nil, &st))
	assert.NotEmpty(t, st.Results["THAN_TAI"][envelope.SideFront])
}

func TestGenerateFailure(t *testing.T) {
	c := newTestServer(t, fakeGenerator{err: errors.New("connection reset")})

	var apiErr apiError
	assert.Equal(t, http.StatusBadGateway, c.json(http.MethodPost, "/api/generate?side=front", nil, &apiErr))
	assert.Equal(t, studio.MsgGenerateFail, apiErr.Error)

	var st stateView
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/state", nil, &st))
	assert.Equal(t, studio.MsgGenerateFail, st.Error)
	assert.False(t, st.Generating[envelope.SideFront])
}

func TestPromptAndReset(t *testing.T) {
	c := newTestServer(t, fakeGenerator{})

	var p promptResponse
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/prompt?side=back", nil, &p))
	assert.Equal(t, envelope.SideBack, p.Side)
	assert.Contains(t, p.Prompt, "Mặt sau bao lì xì.")

	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/prompt", nil, &p))
	assert.Equal(t, envelope.SideFront, p.Side)

	var st stateView
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/greeting", textRequest{Text: "x"}, &st))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/api/reset", nil, &st))
	assert.Empty(t, st.GreetingText)
}

func TestSessionsAreIsolated(t *testing.T) {
	a := newTestServer(t, fakeGenerator{})

	var st stateView
	require.Equal(t, http.StatusOK, a.json(http.MethodPost, "/api/greeting", textRequest{Text: "mine"}, &st))

	b := &testClient{t: t, base: a.base, http: &http.Client{}}
	require.Equal(t, http.StatusOK, b.json(http.MethodGet, "/api/state", nil, &st))
	assert.Empty(t, st.GreetingText)
}

func TestStaticIndex(t *testing.T) {
	c := newTestServer(t, fakeGenerator{})

	resp := c.do(http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "studio")
}
