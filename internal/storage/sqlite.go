package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pagegraph/internal/logger"
	"pagegraph/pkg/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// GraphRecord 依赖图持久化记录，Data 为图的 JSON
type GraphRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Source    string `gorm:"size:1024"`
	NodeCount int
	LinkCount int
	Instances int
	Data      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// SQLiteStore 基于 GORM + SQLite 的图存储
type SQLiteStore struct {
	db  *gorm.DB
	log logger.Logger
}

// OpenSQLite 打开数据库并迁移表结构
func OpenSQLite(dsn, prefix string, l logger.Logger) (*SQLiteStore, error) {
	if l == nil {
		l = logger.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(l).LogMode(gormlogger.Warn),
		NamingStrategy: schema.NamingStrategy{TablePrefix: prefix},
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.AutoMigrate(&GraphRecord{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}
	l.Debug("数据库已就绪", "dsn", dsn)
	return &SQLiteStore{db: db, log: l}, nil
}

// Save 序列化并写入图
func (s *SQLiteStore) Save(ctx context.Context, g *model.Graph, source string) (model.GraphID, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("序列化依赖图失败: %w", err)
	}
	id := newGraphID()
	sum := summarize(id, g, source)
	rec := &GraphRecord{
		ID:        string(id),
		Source:    source,
		NodeCount: sum.Nodes,
		LinkCount: sum.Links,
		Instances: sum.Instances,
		Data:      string(data),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", fmt.Errorf("保存依赖图失败: %w", err)
	}
	s.log.Info("保存依赖图", "graphID", rec.ID, "nodes", rec.NodeCount, "links", rec.LinkCount)
	return id, nil
}

// Get 读取并反序列化图
func (s *SQLiteStore) Get(ctx context.Context, id model.GraphID) (*model.Graph, error) {
	var rec GraphRecord
	err := s.db.WithContext(ctx).Where("id = ?", string(id)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("读取依赖图失败: %w", err)
	}
	var g model.Graph
	if err := json.Unmarshal([]byte(rec.Data), &g); err != nil {
		return nil, fmt.Errorf("反序列化依赖图失败: %w", err)
	}
	return &g, nil
}

// List 列出摘要，不读取图数据
func (s *SQLiteStore) List(ctx context.Context) ([]model.GraphSummary, error) {
	var recs []GraphRecord
	err := s.db.WithContext(ctx).
		Select("id", "source", "node_count", "link_count", "instances", "created_at").
		Order("created_at desc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("列出依赖图失败: %w", err)
	}
	list := make([]model.GraphSummary, 0, len(recs))
	for _, r := range recs {
		list = append(list, model.GraphSummary{
			ID:        model.GraphID(r.ID),
			Source:    r.Source,
			Nodes:     r.NodeCount,
			Links:     r.LinkCount,
			Instances: r.Instances,
			CreatedAt: r.CreatedAt,
		})
	}
	return list, nil
}

// Delete 删除图
func (s *SQLiteStore) Delete(ctx context.Context, id model.GraphID) error {
	res := s.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&GraphRecord{})
	if res.Error != nil {
		return fmt.Errorf("删除依赖图失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}
	s.log.Info("删除依赖图", "graphID", string(id))
	return nil
}

// Close 关闭底层连接
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
