package crawlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrLowMemory 可用内存低于启动浏览器所需的下限
var ErrLowMemory = errors.New("可用内存不足")

const mb = 1024 * 1024

// HostStatus 主机资源快照
type HostStatus struct {
	TotalMB     uint64
	AvailableMB uint64
	CPUPercent  float64
}

func (s HostStatus) String() string {
	return fmt.Sprintf("内存 %d/%d MB 可用, CPU %.1f%%", s.AvailableMB, s.TotalMB, s.CPUPercent)
}

// ResourceChecker 启动浏览器前的主机资源检查
type ResourceChecker struct {
	minFreeMB int

	virtualMemory func() (*mem.VirtualMemoryStat, error)
	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
}

// NewResourceChecker 创建资源检查器; minFreeMB<=0 时只采样不告警
func NewResourceChecker(minFreeMB int) *ResourceChecker {
	return &ResourceChecker{
		minFreeMB:     minFreeMB,
		virtualMemory: mem.VirtualMemory,
		cpuPercent:    cpu.Percent,
	}
}

// Check 采样内存和CPU
// 可用内存低于下限时返回包装了 ErrLowMemory 的错误,调用方决定是否继续
func (rc *ResourceChecker) Check() (HostStatus, error) {
	var status HostStatus

	vm, err := rc.virtualMemory()
	if err != nil {
		return status, fmt.Errorf("获取系统内存失败: %w", err)
	}
	status.TotalMB = vm.Total / mb
	status.AvailableMB = vm.Available / mb

	// 采样失败不影响内存检查
	if usage, err := rc.cpuPercent(200*time.Millisecond, false); err == nil && len(usage) > 0 {
		status.CPUPercent = usage[0]
	}

	if rc.minFreeMB > 0 && status.AvailableMB < uint64(rc.minFreeMB) {
		return status, fmt.Errorf("%w: %d MB < %d MB", ErrLowMemory, status.AvailableMB, rc.minFreeMB)
	}
	return status, nil
}
