package graph

import (
	"fmt"
	"strings"
	"testing"

	"pagegraph/internal/trace"
	"pagegraph/pkg/model"

	"github.com/stretchr/testify/require"
)

const docURL = "https://a.test/"

func other() string { return `{"type": "other"}` }

func parser(url string) string { return fmt.Sprintf(`{"type": "parser", "url": %q}`, url) }

func script(urls ...string) string {
	frames := make([]string, 0, len(urls))
	for i, u := range urls {
		frames = append(frames, fmt.Sprintf(
			`{"functionName": "f%d", "scriptId": "%d", "url": %q, "lineNumber": 0, "columnNumber": 0}`, i, i, u))
	}
	return fmt.Sprintf(`{"type": "script", "stack": {"callFrames": [%s]}}`, strings.Join(frames, ","))
}

// traceBuilder 以协议JSON构造事件序列
type traceBuilder struct {
	t      *testing.T
	events []trace.Event
}

func newTrace(t *testing.T) *traceBuilder {
	return &traceBuilder{t: t}
}

func (b *traceBuilder) add(method, params string) *traceBuilder {
	b.t.Helper()
	ev, err := trace.Decode(trace.Record{Method: method, Params: params})
	require.NoError(b.t, err)
	require.NotNil(b.t, ev)
	b.events = append(b.events, ev)
	return b
}

func (b *traceBuilder) request(id, url, initiator string) *traceBuilder {
	return b.add(trace.MethodRequestWillBeSent, fmt.Sprintf(
		`{"requestId": %q, "documentURL": %q, "request": {"url": %q, "method": "GET"}, "initiator": %s}`,
		id, docURL, url, initiator))
}

func (b *traceBuilder) redirect(id, url string) *traceBuilder {
	return b.add(trace.MethodRequestWillBeSent, fmt.Sprintf(
		`{"requestId": %q, "documentURL": %q, "request": {"url": %q, "method": "GET"}, "initiator": {"type": "other"},
		  "redirectResponse": {"url": "prev", "status": 302, "mimeType": ""}}`,
		id, docURL, url))
}

func (b *traceBuilder) response(id string, status int, mime string) *traceBuilder {
	return b.add(trace.MethodResponseReceived, fmt.Sprintf(
		`{"requestId": %q, "response": {"url": "", "status": %d, "mimeType": %q}}`, id, status, mime))
}

func (b *traceBuilder) data(id string, n int) *traceBuilder {
	return b.add(trace.MethodDataReceived, fmt.Sprintf(
		`{"requestId": %q, "dataLength": %d, "encodedDataLength": 0}`, id, n))
}

func (b *traceBuilder) finished(id string) *traceBuilder {
	return b.add(trace.MethodLoadingFinished, fmt.Sprintf(`{"requestId": %q}`, id))
}

// load 一次完整的加载：请求、响应、单个数据块、完成
func (b *traceBuilder) load(id, url, initiator string, size int) *traceBuilder {
	return b.request(id, url, initiator).response(id, 200, "text/plain").data(id, size).finished(id)
}

func (b *traceBuilder) build(opts Options) *model.Graph {
	return FromEvents(b.events, opts)
}

// checkInvariants 校验连线端点合法、节点ID与下标一致、入度与 initiator-link 数一致
func checkInvariants(t *testing.T, g *model.Graph) {
	t.Helper()
	counts := make(map[model.NodeID]int)
	for _, l := range g.Links {
		require.GreaterOrEqual(t, int(l.Source), 0)
		require.Less(t, int(l.Source), len(g.Nodes))
		require.GreaterOrEqual(t, int(l.Target), 0)
		require.Less(t, int(l.Target), len(g.Nodes))
		if l.Type == model.LinkInitiator {
			counts[l.Target]++
		}
	}
	for i, n := range g.Nodes {
		require.Equal(t, model.NodeID(i), n.ID)
		require.Equal(t, counts[n.ID], n.InDegree, "inDegree of node %d", i)
		if n.Type == model.NodeInstance {
			require.NotNil(t, n.Instance)
		} else {
			require.Nil(t, n.Instance)
		}
	}
}
