package service

import (
	"context"
	"fmt"
	"io"

	"pagegraph/internal/graph"
	"pagegraph/internal/logger"
	"pagegraph/internal/rules"
	"pagegraph/internal/storage"
	"pagegraph/internal/trace"
	"pagegraph/pkg/model"
)

// BuildResult 一次构图的结果，ID 为空表示未保存
type BuildResult struct {
	ID    model.GraphID
	Graph *model.Graph
}

// Config 服务依赖
type Config struct {
	Store   storage.Store
	Exclude *rules.Engine
	Logger  logger.Logger
}

// Service 协调事件日志解析、构图与存储
type Service struct {
	store   storage.Store
	exclude *rules.Engine
	log     logger.Logger
}

// New 创建服务实现
func New(cfg Config) *Service {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNop()
	}
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore(l)
	}
	return &Service{store: store, exclude: cfg.Exclude, log: l}
}

// BuildGraph 读取事件日志并构图；save 为 true 时保存到存储
func (s *Service) BuildGraph(ctx context.Context, r io.Reader, source string, save bool) (*BuildResult, error) {
	tl, err := trace.Read(r)
	if err != nil {
		return nil, fmt.Errorf("解析事件日志 %s 失败: %w", source, err)
	}

	// 每次构图使用独立的关联器
	g := graph.FromLog(tl, graph.Options{
		Exclude: s.exclude,
		Logger:  s.log.With("source", source),
	})
	s.log.Info("依赖图构建完成",
		"source", source,
		"events", g.Stats.Events,
		"instances", g.Stats.Instances,
		"nodes", len(g.Nodes),
		"links", len(g.Links),
	)

	res := &BuildResult{Graph: g}
	if !save {
		return res, nil
	}
	id, err := s.store.Save(ctx, g, source)
	if err != nil {
		return nil, err
	}
	res.ID = id
	return res, nil
}

// GetGraph 按ID获取图
func (s *Service) GetGraph(ctx context.Context, id model.GraphID) (*model.Graph, error) {
	return s.store.Get(ctx, id)
}

// ListGraphs 列出已保存的图
func (s *Service) ListGraphs(ctx context.Context) ([]model.GraphSummary, error) {
	return s.store.List(ctx)
}

// DeleteGraph 删除图
func (s *Service) DeleteGraph(ctx context.Context, id model.GraphID) error {
	return s.store.Delete(ctx, id)
}

// Close 释放存储
func (s *Service) Close() error {
	return s.store.Close()
}
