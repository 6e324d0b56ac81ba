package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/RecoveryAshes/bducrawl/internal/models"
)

func TestHeaderManager_GetMergedHeaders(t *testing.T) {
	t.Run("默认头部", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}
		if hm.UserAgent() != DefaultUserAgent {
			t.Errorf("User-Agent = %q", hm.UserAgent())
		}
		if !strings.Contains(hm.GetMergedHeaders().Get("Accept-Language"), "ru") {
			t.Error("默认Accept-Language应包含ru")
		}
	})

	t.Run("配置文件覆盖默认", func(t *testing.T) {
		hm, err := NewHeaderManager(map[string]string{"user-agent": "ConfigBot/1.0"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if hm.UserAgent() != "ConfigBot/1.0" {
			t.Errorf("User-Agent = %q", hm.UserAgent())
		}
	})

	t.Run("命令行覆盖配置文件", func(t *testing.T) {
		hm, err := NewHeaderManager(
			map[string]string{"User-Agent": "ConfigBot/1.0", "Cookie": "a=1"},
			[]string{"User-Agent: CliBot/2.0"},
		)
		if err != nil {
			t.Fatal(err)
		}
		headers := hm.GetMergedHeaders()
		if headers.Get("User-Agent") != "CliBot/2.0" {
			t.Errorf("User-Agent = %q", headers.Get("User-Agent"))
		}
		if headers.Get("Cookie") != "a=1" {
			t.Errorf("Cookie = %q", headers.Get("Cookie"))
		}
	})

	t.Run("命令行格式错误", func(t *testing.T) {
		if _, err := NewHeaderManager(nil, []string{"NoColon"}); err == nil {
			t.Error("期望返回错误")
		}
	})
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("禁止头部", func(t *testing.T) {
		hm, err := NewHeaderManager(map[string]string{"Host": "evil.example"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		_, err = hm.GetHeaders()
		var vErr *models.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("error = %v, want *ValidationError", err)
		}
	})

	t.Run("敏感头部脱敏", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, []string{"Authorization: Bearer secret-token"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := hm.GetHeaders(); err != nil {
			t.Fatalf("GetHeaders() error = %v", err)
		}
		if got := hm.GetSafeHeaders()["Authorization"]; got != "Bearer ***" {
			t.Errorf("Authorization = %q", got)
		}
	})
}
