package api

import (
	"context"
	"io"

	"pagegraph/internal/service"
	"pagegraph/pkg/model"
)

type BuildResult = service.BuildResult
type Config = service.Config

// Service 服务接口
type Service interface {
	// BuildGraph 从事件日志构建依赖图，save 为 true 时同时保存
	BuildGraph(ctx context.Context, r io.Reader, source string, save bool) (*BuildResult, error)

	// GetGraph 按ID获取依赖图
	GetGraph(ctx context.Context, id model.GraphID) (*model.Graph, error)

	// ListGraphs 列出已保存的依赖图
	ListGraphs(ctx context.Context) ([]model.GraphSummary, error)

	// DeleteGraph 删除依赖图
	DeleteGraph(ctx context.Context, id model.GraphID) error

	// Close 释放资源
	Close() error
}

// NewService 创建并返回服务接口实现
func NewService(cfg Config) Service {
	return service.New(cfg)
}
