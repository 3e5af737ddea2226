package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"pagegraph/internal/logger"
	"pagegraph/pkg/model"
)

type memoryEntry struct {
	graph   *model.Graph
	summary model.GraphSummary
}

// MemoryStore 进程内图存储，进程退出即失效
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[model.GraphID]*memoryEntry
	log    logger.Logger
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(l logger.Logger) *MemoryStore {
	if l == nil {
		l = logger.NewNop()
	}
	return &MemoryStore{
		graphs: make(map[model.GraphID]*memoryEntry),
		log:    l,
	}
}

// Save 注册新图
func (m *MemoryStore) Save(_ context.Context, g *model.Graph, source string) (model.GraphID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := newGraphID()
	s := summarize(id, g, source)
	s.CreatedAt = time.Now()
	m.graphs[id] = &memoryEntry{graph: g, summary: s}
	m.log.Info("保存依赖图", "graphID", string(id), "nodes", s.Nodes)
	return id, nil
}

// Get 获取图
func (m *MemoryStore) Get(_ context.Context, id model.GraphID) (*model.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.graphs[id]
	if !ok {
		return nil, notFound(id)
	}
	return e.graph, nil
}

// List 返回所有图摘要
func (m *MemoryStore) List(_ context.Context) ([]model.GraphSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]model.GraphSummary, 0, len(m.graphs))
	for _, e := range m.graphs {
		list = append(list, e.summary)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// Delete 删除图
func (m *MemoryStore) Delete(_ context.Context, id model.GraphID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.graphs[id]; !ok {
		return notFound(id)
	}
	delete(m.graphs, id)
	m.log.Info("删除依赖图", "graphID", string(id))
	return nil
}

func (m *MemoryStore) Close() error { return nil }
