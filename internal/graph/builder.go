package graph

import (
	"pagegraph/internal/logger"
	"pagegraph/internal/trace"
	"pagegraph/pkg/model"
)

// Build 由按URL分组的实例生成节点和连线。
//
// 每个URL按出现顺序分配 0..n-1 的节点ID；只有一个实例时该节点就是实例节点，
// 多个实例时该节点为占位节点，各实例另行分配ID并由占位节点连出 instance-link。
// initiator-link 总是指向发起者URL对应的节点，而不是其某个历史实例。
// 不做环检测。返回值 uncaptured 为因发起者未被捕获而丢弃的连线数。
func Build(objects []Object, l logger.Logger) (nodes []model.Node, links []model.Link, uncaptured int) {
	if l == nil {
		l = logger.NewNop()
	}

	ids := make(map[string]model.NodeID, len(objects))
	for i, o := range objects {
		ids[o.URL] = model.NodeID(i)
	}

	nodes = make([]model.Node, len(objects))
	links = []model.Link{}
	inDegree := make(map[model.NodeID]int)
	next := model.NodeID(len(objects))

	for _, o := range objects {
		objectID := ids[o.URL]
		nodes[objectID] = model.Node{ID: objectID, Type: model.NodePlaceholder, URL: o.URL}

		for i := range o.Instances {
			inst := o.Instances[i]
			var instanceID model.NodeID
			if len(o.Instances) == 1 {
				instanceID = objectID
				nodes[objectID].Type = model.NodeInstance
				nodes[objectID].Instance = &inst
			} else {
				instanceID = next
				next++
				nodes = append(nodes, model.Node{
					ID:       instanceID,
					Type:     model.NodeInstance,
					URL:      o.URL,
					Instance: &inst,
				})
				links = append(links, model.Link{Source: objectID, Target: instanceID, Type: model.LinkInstance})
			}

			for _, initiatorURL := range inst.Initiators {
				target, ok := ids[initiatorURL]
				if !ok {
					uncaptured++
					l.Debug("发起者未被捕获", "url", initiatorURL)
					continue
				}
				links = append(links, model.Link{Source: instanceID, Target: target, Type: model.LinkInitiator})
				inDegree[target]++
			}
		}
	}

	for i := range nodes {
		nodes[i].InDegree = inDegree[nodes[i].ID]
	}
	return nodes, links, uncaptured
}

// FromEvents 关联事件并构图
func FromEvents(events []trace.Event, opts Options) *model.Graph {
	c := NewCorrelator(opts)
	for _, ev := range events {
		c.Handle(ev)
	}
	nodes, links, uncaptured := Build(c.Objects(), c.log)
	stats := c.Stats()
	stats.UncapturedInitiators = uncaptured
	return &model.Graph{Nodes: nodes, Links: links, Stats: stats}
}

// FromLog 从解码后的事件日志构图，统计中包含被跳过的记录
func FromLog(tl *trace.Log, opts Options) *model.Graph {
	g := FromEvents(tl.Events, opts)
	g.Stats.Events += tl.Skipped
	g.Stats.Skipped += tl.Skipped
	return g
}
