package serve

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type closeSpy struct {
	io.Reader
	closed bool
}

func (c *closeSpy) Close() error {
	c.closed = true
	return nil
}

func TestHTTPHandler_WritesStatusHeaderAndBody(t *testing.T) {
	h := HandlerFunc(func(req *http.Request) (*Response, error) {
		return Text(http.StatusTeapot, "short and stout"), nil
	})

	rec := httptest.NewRecorder()
	HTTPHandler(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, ContentTypeText, rec.Header().Get(HeaderContentType))
	require.Equal(t, "short and stout", rec.Body.String())
}

func TestWrite_SuppressesContentTypeSniffing(t *testing.T) {
	body := &closeSpy{Reader: strings.NewReader("<html><body>x</body></html>")}
	resp := NewResponse(http.StatusOK, body)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := Write(w, resp); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Empty(t, res.Header.Get(HeaderContentType), "no Content-Type header must be sent")
	require.True(t, body.closed)
}

func TestHTTPHandler_ErrorAbortsConnection(t *testing.T) {
	h := HandlerFunc(func(req *http.Request) (*Response, error) {
		return nil, errors.New("broken pipe")
	})

	rec := httptest.NewRecorder()
	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		HTTPHandler(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	})
}

func TestHTTPHandler_NilResponseIsNoContent(t *testing.T) {
	h := HandlerFunc(func(req *http.Request) (*Response, error) { return nil, nil })

	rec := httptest.NewRecorder()
	HTTPHandler(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFile_StreamsAndSetsLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, File(http.StatusOK, f, 5)))
	require.Equal(t, "5", rec.Header().Get(HeaderContentLength))
	require.Equal(t, "hello", rec.Body.String())
}

func TestJSON(t *testing.T) {
	resp, err := JSON(http.StatusOK, map[string]bool{"is_live": true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, resp))
	require.JSONEq(t, `{"is_live":true}`, rec.Body.String())
	require.Equal(t, ContentTypeJSON, rec.Header().Get(HeaderContentType))
}
