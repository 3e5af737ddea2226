package storage

import (
	"context"

	"pagegraph/pkg/model"

	"github.com/google/uuid"
	"github.com/morikuni/failure/v2"
)

// ErrorCode 存储错误码
type ErrorCode string

const (
	ErrGraphNotFound ErrorCode = "GraphNotFound"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Store 依赖图存储
type Store interface {
	// Save 保存图并返回新分配的ID
	Save(ctx context.Context, g *model.Graph, source string) (model.GraphID, error)

	// Get 按ID读取图
	Get(ctx context.Context, id model.GraphID) (*model.Graph, error)

	// List 按创建时间倒序列出摘要
	List(ctx context.Context) ([]model.GraphSummary, error)

	// Delete 删除图
	Delete(ctx context.Context, id model.GraphID) error

	Close() error
}

func newGraphID() model.GraphID {
	return model.GraphID(uuid.NewString())
}

func notFound(id model.GraphID) error {
	return failure.New(ErrGraphNotFound,
		failure.Message("Graph not found or expired"),
		failure.Context{"id": string(id)},
	)
}

func summarize(id model.GraphID, g *model.Graph, source string) model.GraphSummary {
	return model.GraphSummary{
		ID:        id,
		Source:    source,
		Nodes:     len(g.Nodes),
		Links:     len(g.Links),
		Instances: g.Stats.Instances,
	}
}
