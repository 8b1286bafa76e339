// Package monitor 记录各组件的健康状态，供就绪检查使用。
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// 组件状态
const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus 健康状态
type HealthStatus struct {
	Component   string    `json:"component"`
	Status      string    `json:"status"`
	LastChecked time.Time `json:"last_checked"`
	Message     string    `json:"message,omitempty"`
}

// CheckFunc 组件检查函数，返回 nil 表示健康
type CheckFunc func(ctx context.Context) error

// Monitor 监控系统
type Monitor struct {
	components map[string]*HealthStatus
	checks     map[string]CheckFunc
	mutex      sync.RWMutex
	alertFunc  func(component, status, message string)
}

// NewMonitor 创建新的监控系统，alertFunc 为 nil 时状态变差只记日志
func NewMonitor(alertFunc func(component, status, message string)) *Monitor {
	if alertFunc == nil {
		alertFunc = func(component, status, message string) {
			log.Warn().Str("component", component).Str("status", status).Msg(message)
		}
	}
	return &Monitor{
		components: make(map[string]*HealthStatus),
		checks:     make(map[string]CheckFunc),
		alertFunc:  alertFunc,
	}
}

// RegisterComponent 注册组件及其检查函数
func (m *Monitor) RegisterComponent(component string, check CheckFunc) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.components[component] = &HealthStatus{
		Component:   component,
		Status:      StatusUnknown,
		LastChecked: time.Now(),
	}
	m.checks[component] = check
}

// UpdateStatus 更新组件状态
func (m *Monitor) UpdateStatus(component, status, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.components[component]; !exists {
		m.components[component] = &HealthStatus{
			Component: component,
		}
	}

	oldStatus := m.components[component].Status
	m.components[component].Status = status
	m.components[component].LastChecked = time.Now()
	m.components[component].Message = message

	// 状态变为不健康时告警
	if oldStatus != status && status != StatusHealthy {
		m.alertFunc(component, status, message)
	}
}

// GetStatus 获取组件状态的副本
func (m *Monitor) GetStatus(component string) *HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if status, exists := m.components[component]; exists {
		s := *status
		return &s
	}
	return nil
}

// GetAllStatus 获取所有组件状态，按组件名排序
func (m *Monitor) GetAllStatus() []HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	statuses := make([]HealthStatus, 0, len(m.components))
	for _, status := range m.components {
		statuses = append(statuses, *status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Component < statuses[j].Component })
	return statuses
}

// CheckAll 执行所有已注册的检查，全部健康时返回 true
func (m *Monitor) CheckAll(ctx context.Context) bool {
	m.mutex.RLock()
	checks := make(map[string]CheckFunc, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.mutex.RUnlock()

	healthy := true
	for name, check := range checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			m.UpdateStatus(name, StatusUnhealthy, err.Error())
			healthy = false
			continue
		}
		m.UpdateStatus(name, StatusHealthy, "")
	}
	return healthy
}

// StartChecking 定期执行检查，ctx 取消时停止
func (m *Monitor) StartChecking(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckAll(ctx)
			}
		}
	}()
}
