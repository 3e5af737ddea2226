package graph

import (
	"testing"

	"pagegraph/internal/rules"
	"pagegraph/pkg/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func correlate(b *traceBuilder, opts Options) *Correlator {
	c := NewCorrelator(opts)
	for _, ev := range b.events {
		c.Handle(ev)
	}
	return c
}

func TestCorrelatorSingleLoad(t *testing.T) {
	b := newTrace(t).
		request("1", "https://a.test/app.js", parser(docURL)).
		response("1", 200, "application/javascript").
		data("1", 100).
		data("1", 23).
		finished("1")

	c := correlate(b, Options{})
	want := []Object{{
		URL: "https://a.test/app.js",
		Instances: []model.Instance{{
			Document:   docURL,
			Method:     "GET",
			Status:     200,
			Mime:       "application/javascript",
			Size:       123,
			Initiators: []string{docURL},
		}},
	}}
	if diff := cmp.Diff(want, c.Objects()); diff != "" {
		t.Errorf("Objects() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, model.Stats{Events: 5, Instances: 1}, c.Stats())
}

func TestCorrelatorRedirectChain(t *testing.T) {
	b := newTrace(t).
		request("1", "http://a.test/", other()).
		data("1", 10).
		redirect("1", "https://a.test/").
		data("1", 20).
		redirect("1", "https://www.a.test/").
		response("1", 200, "text/html").
		data("1", 30).
		finished("1")

	objs := correlate(b, Options{}).Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, "https://www.a.test/", objs[0].URL)
	require.Len(t, objs[0].Instances, 1)
	assert.Equal(t, int64(60), objs[0].Instances[0].Size)
	assert.Equal(t, "GET", objs[0].Instances[0].Method)
	assert.Empty(t, objs[0].Instances[0].Initiators)
}

func TestCorrelatorBrokenRedirect(t *testing.T) {
	b := newTrace(t).
		redirect("1", "https://a.test/next").
		response("1", 200, "text/html").
		finished("1")

	c := correlate(b, Options{})
	assert.Empty(t, c.Objects())
	s := c.Stats()
	assert.Equal(t, 1, s.BrokenRedirects)
	assert.Equal(t, 2, s.Orphaned)
	assert.Equal(t, 0, s.Instances)
}

func TestCorrelatorOrphanEvents(t *testing.T) {
	b := newTrace(t).
		response("x", 200, "text/html").
		data("x", 5).
		finished("x")

	c := correlate(b, Options{})
	assert.Empty(t, c.Objects())
	assert.Equal(t, 3, c.Stats().Orphaned)
}

func TestCorrelatorFinishedWithoutResponse(t *testing.T) {
	b := newTrace(t).
		request("1", "https://a.test/", other()).
		data("1", 5).
		finished("1")

	c := correlate(b, Options{})
	assert.Empty(t, c.Objects())
	assert.Equal(t, 1, c.Stats().Incomplete)

	g := b.build(Options{})
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Links)
}

func TestCorrelatorReusedRequestID(t *testing.T) {
	b := newTrace(t).
		request("1", "https://a.test/old", other()).
		response("1", 500, "text/plain").
		data("1", 99).
		request("1", "https://a.test/new", parser(docURL)).
		data("1", 7).
		finished("1")

	objs := correlate(b, Options{}).Objects()
	// 新请求覆盖旧记录：没有响应，因此不产生实例
	assert.Empty(t, objs)

	b.response("1", 200, "text/css").data("1", 3).finished("1")
	objs = correlate(b, Options{}).Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, "https://a.test/new", objs[0].URL)
	require.Len(t, objs[0].Instances, 1)
	inst := objs[0].Instances[0]
	assert.Equal(t, int64(10), inst.Size)
	assert.Equal(t, 200, inst.Status)
	assert.Equal(t, []string{docURL}, inst.Initiators)
}

func TestCorrelatorSizeIndependentOfHeaders(t *testing.T) {
	b := newTrace(t).request("1", "https://a.test/big", other())
	b.add("Network.responseReceived", `{"requestId": "1", "response": {"url": "https://a.test/big", "status": 200, "mimeType": "video/mp4",
		"headers": {"Content-Length": "1"}, "encodedDataLength": 1}}`)
	want := 0
	for _, n := range []int{4096, 4096, 17, 0, 1} {
		b.data("1", n)
		want += n
	}
	b.finished("1")

	objs := correlate(b, Options{}).Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, int64(want), objs[0].Instances[0].Size)
}

func TestCorrelatorExclusion(t *testing.T) {
	b := newTrace(t).
		load("1", "https://a.test/", other(), 1).
		load("2", "https://a.test/ext.js", script("https://a.test/", "chrome-extension://abc/content.js"), 1).
		load("3", "https://a.test/err.png", parser("data:text/html,chromewebdata"), 1)

	c := correlate(b, Options{Exclude: rules.MustDefault()})
	objs := c.Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, "https://a.test/", objs[0].URL)
	assert.Equal(t, 2, c.Stats().Excluded)

	// 未配置排除条件时全部保留
	assert.Len(t, correlate(b, Options{}).Objects(), 3)
}

func TestCorrelatorGroupsByURLInEncounterOrder(t *testing.T) {
	b := newTrace(t).
		load("1", "https://a.test/b", other(), 1).
		load("2", "https://a.test/a", other(), 2).
		load("3", "https://a.test/b", other(), 3)

	objs := correlate(b, Options{}).Objects()
	require.Len(t, objs, 2)
	assert.Equal(t, "https://a.test/b", objs[0].URL)
	assert.Equal(t, "https://a.test/a", objs[1].URL)
	require.Len(t, objs[0].Instances, 2)
	assert.Equal(t, int64(1), objs[0].Instances[0].Size)
	assert.Equal(t, int64(3), objs[0].Instances[1].Size)
}
