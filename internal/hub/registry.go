package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session 是一个可以接收消息的活跃连接。
// Send 不能阻塞：发送缓冲已满或连接已关闭时返回 false。
type Session interface {
	Send(message []byte) bool
	Close()
}

// Registry 维护当前活跃的连接集合，只存在于进程生命周期内。
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewRegistry 创建空的 Registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Register 添加连接并分配进程内唯一的 ID，不会失败
func (r *Registry) Register(s Session) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return id
}

// Deregister 移除连接。重复调用是安全的，返回是否真的移除了。
func (r *Registry) Deregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len 返回当前连接数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ForEach 对调用时刻的每个连接执行 fn，不保证顺序。
// 迭代的是成员副本，fn 内可以安全地 Register/Deregister；单个连接上的 panic 不会中断迭代。
func (r *Registry) ForEach(fn func(id string, s Session)) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	members := make([]Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		ids = append(ids, id)
		members = append(members, s)
	}
	r.mu.RUnlock()

	for i, s := range members {
		r.visit(ids[i], s, fn)
	}
}

func (r *Registry) visit(id string, s Session, fn func(id string, s Session)) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithFields(logrus.Fields{
				"component":  "registry",
				"session_id": id,
			}).Errorf("Recovered from panic while visiting session: %v", rec)
		}
	}()
	fn(id, s)
}
