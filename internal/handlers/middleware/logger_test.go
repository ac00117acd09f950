package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	infoMsgs  []string
	errorMsgs []string
	lastArgs  []any
}

func (l *recordingLogger) Info(msg string, args ...any) {
	l.infoMsgs = append(l.infoMsgs, msg)
	l.lastArgs = args
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.errorMsgs = append(l.errorMsgs, msg)
	l.lastArgs = args
}

func TestLoggerMiddleware(t *testing.T) {
	t.Run("logs one info line with the response fields", func(t *testing.T) {
		log := &recordingLogger{}

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, err := w.Write([]byte("hi"))
			require.NoError(t, err)
		})

		srv := httptest.NewServer(LoggerMiddleware(log)(h))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/webreport?status=pending")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusTeapot, resp.StatusCode)
		require.Equal(t, "hi", string(body))

		require.Equal(t, []string{"request handled"}, log.infoMsgs)
		require.Empty(t, log.errorMsgs)

		require.Len(t, log.lastArgs, 10)
		require.Equal(t, []any{"method", "GET"}, log.lastArgs[0:2])
		require.Equal(t, []any{"path", "/webreport"}, log.lastArgs[2:4], "query string stays out of the path field")
		require.Equal(t, []any{"status", http.StatusTeapot}, log.lastArgs[4:6])
		require.Equal(t, []any{"bytes", 2}, log.lastArgs[6:8])
		require.Equal(t, "elapsed", log.lastArgs[8])
		require.NotEmpty(t, log.lastArgs[9])
	})

	t.Run("server errors go to the error level", func(t *testing.T) {
		log := &recordingLogger{}

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		srv := httptest.NewServer(LoggerMiddleware(log)(h))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/matching/run")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Empty(t, log.infoMsgs)
		require.Equal(t, []string{"request failed"}, log.errorMsgs)
	})

	t.Run("defaults to 200 when the handler never sets a status", func(t *testing.T) {
		log := &recordingLogger{}

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})

		srv := httptest.NewServer(LoggerMiddleware(log)(h))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Len(t, log.infoMsgs, 1)
		require.Equal(t, []any{"status", http.StatusOK}, log.lastArgs[4:6])
	})
}
