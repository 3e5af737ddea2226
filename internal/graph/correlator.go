package graph

import (
	cdpadapter "pagegraph/internal/adapter/cdp"
	"pagegraph/internal/logger"
	"pagegraph/internal/rules"
	"pagegraph/internal/trace"
	"pagegraph/pkg/model"
	"pagegraph/pkg/traffic"

	"github.com/samber/lo"
)

// descriptor 单个在途请求的记录
type descriptor struct {
	url      string // 重定向续接时更新
	request  *traffic.Request
	response *traffic.Response
	size     int64 // dataReceived 的 dataLength 累加
}

// Object 同一URL下的全部完成实例
type Object struct {
	URL       string
	Instances []model.Instance
}

// Options 构图选项
type Options struct {
	Exclude *rules.Engine // nil 表示不排除任何发起者
	Logger  logger.Logger
}

// Correlator 将事件与在途请求关联，为每个完整请求生成实例。
// 一个 Correlator 只服务一份事件日志，非并发安全。
type Correlator struct {
	descriptors map[string]*descriptor
	objects     map[string]*Object
	order       []*Object // URL首次出现顺序
	exclude     *rules.Engine
	stats       model.Stats
	log         logger.Logger
}

// NewCorrelator 创建关联器
func NewCorrelator(opts Options) *Correlator {
	l := opts.Logger
	if l == nil {
		l = logger.NewNop()
	}
	return &Correlator{
		descriptors: make(map[string]*descriptor),
		objects:     make(map[string]*Object),
		exclude:     opts.Exclude,
		log:         l,
	}
}

// Handle 处理一条事件；所有异常都只记录诊断日志，不向上返回
func (c *Correlator) Handle(ev trace.Event) {
	c.stats.Events++
	switch e := ev.(type) {
	case *trace.RequestWillBeSent:
		c.requestWillBeSent(e)
	case *trace.ResponseReceived:
		c.responseReceived(e)
	case *trace.DataReceived:
		c.dataReceived(e)
	case *trace.LoadingFinished:
		c.loadingFinished(e)
	default:
		c.stats.Skipped++
		c.log.Warn("未处理的事件变体", "requestId", ev.ID())
	}
}

func (c *Correlator) requestWillBeSent(e *trace.RequestWillBeSent) {
	id := e.ID()
	// 重定向与原请求共享 requestId，只更新URL
	if e.Redirect {
		d, ok := c.descriptors[id]
		if !ok {
			c.stats.BrokenRedirects++
			c.log.Debug("重定向缺少前序请求", "requestId", id, "url", e.Request.URL)
			return
		}
		d.url = e.Request.URL
		return
	}
	// requestId 被复用时直接覆盖旧记录
	c.descriptors[id] = &descriptor{
		url:     e.Request.URL,
		request: cdpadapter.ToNeutralRequest(&e.RequestWillBeSentReply),
	}
}

func (c *Correlator) responseReceived(e *trace.ResponseReceived) {
	d, ok := c.descriptors[e.ID()]
	if !ok {
		c.stats.Orphaned++
		c.log.Debug("响应缺少前序请求", "requestId", e.ID(), "url", e.Response.URL)
		return
	}
	d.response = cdpadapter.ToNeutralResponse(&e.ResponseReceivedReply)
}

func (c *Correlator) dataReceived(e *trace.DataReceived) {
	d, ok := c.descriptors[e.ID()]
	if !ok {
		c.stats.Orphaned++
		c.log.Debug("数据缺少前序请求", "requestId", e.ID())
		return
	}
	// encodedDataLength 和 content-length 都不可靠（如分块传输），以实际收到的数据块为准
	d.size += int64(e.DataLength)
}

func (c *Correlator) loadingFinished(e *trace.LoadingFinished) {
	d, ok := c.descriptors[e.ID()]
	if !ok {
		c.stats.Orphaned++
		c.log.Debug("加载完成缺少前序请求", "requestId", e.ID())
		return
	}
	if d.response == nil {
		c.stats.Incomplete++
		c.log.Debug("加载完成但未收到响应", "requestId", e.ID(), "url", d.url)
		return
	}

	initiators := ExtractInitiators(d.request, c.log)
	if lo.ContainsBy(initiators, c.exclude.Match) {
		c.stats.Excluded++
		c.log.Debug("由浏览器内部资源发起，忽略", "requestId", e.ID(), "url", d.url)
		return
	}

	inst := model.Instance{
		Document:   d.request.DocumentURL,
		Method:     d.request.Method,
		Status:     d.response.StatusCode,
		Mime:       d.response.MimeType,
		Size:       d.size,
		Initiators: initiators,
	}
	obj, ok := c.objects[d.url]
	if !ok {
		obj = &Object{URL: d.url}
		c.objects[d.url] = obj
		c.order = append(c.order, obj)
	}
	obj.Instances = append(obj.Instances, inst)
	c.stats.Instances++
}

// Objects 按URL首次出现顺序返回所有对象
func (c *Correlator) Objects() []Object {
	out := make([]Object, 0, len(c.order))
	for _, o := range c.order {
		out = append(out, *o)
	}
	return out
}

// Stats 当前统计
func (c *Correlator) Stats() model.Stats {
	return c.stats
}
