package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "missed_urls.txt")
	ledger, err := NewFileLedger(path)
	require.NoError(t, err)
	defer ledger.Close()

	// 文件不存在时返回空列表
	urls, err := ledger.ReadAll()
	require.NoError(t, err)
	require.Empty(t, urls)

	require.NoError(t, ledger.Reset())
	require.NoError(t, ledger.Append("https://bdu.fstec.ru/vul/2025-00001"))
	require.NoError(t, ledger.Append("https://bdu.fstec.ru/vul/2025-00004"))
	require.NoError(t, ledger.Append("https://bdu.fstec.ru/vul/2025-00001"))

	urls, err = ledger.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://bdu.fstec.ru/vul/2025-00001",
		"https://bdu.fstec.ru/vul/2025-00004",
	}, urls)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "https://bdu.fstec.ru/vul/2025-00001\nhttps://bdu.fstec.ru/vul/2025-00004\n", string(data))
}

func TestFileLedger_ResetTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missed_urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://old.example/1\n"), 0644))

	ledger, err := NewFileLedger(path)
	require.NoError(t, err)
	defer ledger.Close()

	require.NoError(t, ledger.Reset())
	urls, err := ledger.ReadAll()
	require.NoError(t, err)
	require.Empty(t, urls)

	// 重置后同一URL可以再次写入
	require.NoError(t, ledger.Append("https://old.example/1"))
	require.NoError(t, ledger.Reset())
	require.NoError(t, ledger.Append("https://old.example/1"))
	urls, err = ledger.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"https://old.example/1"}, urls)
}

func TestFileLedger_RejectsNewline(t *testing.T) {
	ledger, err := NewFileLedger(filepath.Join(t.TempDir(), "missed_urls.txt"))
	require.NoError(t, err)
	defer ledger.Close()

	require.Error(t, ledger.Append("https://a\nhttps://b"))

	_, err = NewFileLedger("")
	require.Error(t, err)
}

func TestFixedRetryPolicy(t *testing.T) {
	p := NewFixedRetryPolicy(3, 0)
	require.True(t, p.ShouldRetry(1))
	require.True(t, p.ShouldRetry(2))
	require.False(t, p.ShouldRetry(3))
	require.Zero(t, p.Backoff(1))

	d := NewFixedRetryPolicy(0, -1)
	require.Equal(t, DefaultMaxAttempts, d.MaxAttempts())
	require.Equal(t, DefaultRetryBackoff, d.Backoff(2))
}
