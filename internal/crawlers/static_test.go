package crawlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

type staticHeaders http.Header

func (h staticHeaders) GetHeaders() (http.Header, error) {
	return http.Header(h), nil
}

func newCatalogServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var flaky atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/vul/2025-00001", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><h1>BDU:2025-00001</h1><p>" + r.Header.Get("User-Agent") + "</p></body></html>"))
	})
	mux.HandleFunc("/vul/2025-00002", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte("<html><body><h1>Уязвимость 2025-00002</h1></body></html>"))
		bw.Close()
	})
	mux.HandleFunc("/vul/2025-00003", func(w http.ResponseWriter, r *http.Request) {
		if flaky.Add(1) == 1 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.Write([]byte("<html><body>recovered</body></html>"))
	})
	mux.HandleFunc("/vul/2025-00004", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><title>Страница не найдена</title></html>"))
	})

	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)
	return srv, &flaky
}

func staticConfig() models.FetchConfig {
	return models.FetchConfig{
		Mode:             models.ModeStatic,
		PageTimeout:      5 * time.Second,
		IgnoreCertErrors: true,
		NotFoundMarkers:  testMarkers,
	}
}

func TestStaticSession_Fetch(t *testing.T) {
	srv, _ := newCatalogServer(t)
	ctx := context.Background()

	launcher := NewStaticLauncher(staticConfig(), staticHeaders{"User-Agent": {"bducrawl-test"}})
	session, err := launcher.Launch(ctx)
	require.NoError(t, err)
	defer session.Close()

	t.Run("普通页面", func(t *testing.T) {
		out, err := session.Fetch(ctx, srv.URL+"/vul/2025-00001")
		require.NoError(t, err)
		require.Equal(t, models.FetchSuccess, out.Kind)
		require.Contains(t, out.Markup, "BDU:2025-00001")
		require.Contains(t, out.Markup, "bducrawl-test")
	})

	t.Run("brotli压缩", func(t *testing.T) {
		out, err := session.Fetch(ctx, srv.URL+"/vul/2025-00002")
		require.NoError(t, err)
		require.Equal(t, models.FetchSuccess, out.Kind)
		require.Contains(t, out.Markup, "Уязвимость 2025-00002")
	})

	t.Run("5xx后重试成功", func(t *testing.T) {
		out, err := session.Fetch(ctx, srv.URL+"/vul/2025-00003")
		require.NoError(t, err)
		require.Equal(t, models.FetchTransient, out.Kind)

		out, err = session.Fetch(ctx, srv.URL+"/vul/2025-00003")
		require.NoError(t, err)
		require.Equal(t, models.FetchSuccess, out.Kind)
	})

	t.Run("404", func(t *testing.T) {
		out, err := session.Fetch(ctx, srv.URL+"/vul/2025-99999")
		require.NoError(t, err)
		require.Equal(t, models.FetchNotFound, out.Kind)
	})

	t.Run("未找到标记", func(t *testing.T) {
		out, err := session.Fetch(ctx, srv.URL+"/vul/2025-00004")
		require.NoError(t, err)
		require.Equal(t, models.FetchNotFound, out.Kind)
	})
}

func TestStaticSession_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/vul/2025-00001"
	srv.Close()

	session, err := NewStaticLauncher(staticConfig(), nil).Launch(context.Background())
	require.NoError(t, err)
	defer session.Close()

	out, err := session.Fetch(context.Background(), url)
	require.NoError(t, err)
	require.Equal(t, models.FetchTransient, out.Kind)
	require.Error(t, out.Cause)
}

func TestStaticSession_CertVerification(t *testing.T) {
	srv, _ := newCatalogServer(t)

	cfg := staticConfig()
	cfg.IgnoreCertErrors = false
	session, err := NewStaticLauncher(cfg, nil).Launch(context.Background())
	require.NoError(t, err)
	defer session.Close()

	out, err := session.Fetch(context.Background(), srv.URL+"/vul/2025-00001")
	require.NoError(t, err)
	require.Equal(t, models.FetchTransient, out.Kind, "自签名证书应导致请求失败")
}

func TestStaticSession_Canceled(t *testing.T) {
	session, err := NewStaticLauncher(staticConfig(), nil).Launch(context.Background())
	require.NoError(t, err)
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = session.Fetch(ctx, "https://bdu.fstec.ru/vul/2025-00001")
	require.ErrorIs(t, err, context.Canceled)
}
