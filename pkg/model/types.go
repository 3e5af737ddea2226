package model

import "time"

type GraphID string
type NodeID int

type NodeType string
type LinkType string

const (
	NodePlaceholder NodeType = "placeholder"
	NodeInstance    NodeType = "instance"

	LinkInstance  LinkType = "instance-link"
	LinkInitiator LinkType = "initiator-link"
)

// Instance 一次完成的资源加载
type Instance struct {
	Document   string   `json:"document"`
	Method     string   `json:"method"`
	Status     int      `json:"status"`
	Mime       string   `json:"mime"`
	Size       int64    `json:"size"`
	Initiators []string `json:"initiators"`
}

// Node 图节点，Instance 仅在 instance 类型节点上存在
type Node struct {
	ID       NodeID    `json:"id"`
	Type     NodeType  `json:"type"`
	URL      string    `json:"url"`
	Instance *Instance `json:"instance,omitempty"`
	InDegree int       `json:"inDegree"`
}

type Link struct {
	Source NodeID   `json:"source"`
	Target NodeID   `json:"target"`
	Type   LinkType `json:"type"`
}

// Stats 构图过程统计，每个诊断分支对应一个计数
type Stats struct {
	Events               int `json:"events"`
	Skipped              int `json:"skipped"`              // 未识别的事件方法
	Orphaned             int `json:"orphaned"`             // 找不到请求描述符的事件
	BrokenRedirects      int `json:"brokenRedirects"`      // 没有前序请求的重定向
	Incomplete           int `json:"incomplete"`           // 完成时尚未收到响应
	Excluded             int `json:"excluded"`             // 由浏览器内部来源发起
	Instances            int `json:"instances"`
	UncapturedInitiators int `json:"uncapturedInitiators"` // 发起者URL未被捕获
}

// Graph 依赖图，节点下标即节点ID
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Stats Stats  `json:"stats"`
}

// GraphSummary 已保存图的摘要
type GraphSummary struct {
	ID        GraphID   `json:"id"`
	Source    string    `json:"source"`
	Nodes     int       `json:"nodes"`
	Links     int       `json:"links"`
	Instances int       `json:"instances"`
	CreatedAt time.Time `json:"createdAt"`
}

// Node 按ID取节点
func (g *Graph) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(g.Nodes) {
		return Node{}, false
	}
	return g.Nodes[id], true
}

// NodesByURL 返回同一URL下的所有节点（占位节点在前）
func (g *Graph) NodesByURL(url string) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.URL == url {
			out = append(out, n)
		}
	}
	return out
}

// LinksOfType 按类型筛选连线
func (g *Graph) LinksOfType(t LinkType) []Link {
	var out []Link
	for _, l := range g.Links {
		if l.Type == t {
			out = append(out, l)
		}
	}
	return out
}
