package trace

import "github.com/mafredri/cdp/protocol/network"

// 识别的 Network 域事件
const (
	MethodRequestWillBeSent = "Network.requestWillBeSent"
	MethodResponseReceived  = "Network.responseReceived"
	MethodDataReceived      = "Network.dataReceived"
	MethodLoadingFinished   = "Network.loadingFinished"
)

// Event 请求生命周期事件，变体固定为本文件中的四种
type Event interface {
	// ID 返回事件关联的 requestId
	ID() string
	event()
}

// RequestWillBeSent 请求即将发出；Redirect 表示这是同一 requestId 的重定向续接
type RequestWillBeSent struct {
	network.RequestWillBeSentReply
	Redirect bool
}

type ResponseReceived struct {
	network.ResponseReceivedReply
}

type DataReceived struct {
	network.DataReceivedReply
}

type LoadingFinished struct {
	network.LoadingFinishedReply
}

func (e *RequestWillBeSent) ID() string { return string(e.RequestID) }
func (e *ResponseReceived) ID() string  { return string(e.RequestID) }
func (e *DataReceived) ID() string      { return string(e.RequestID) }
func (e *LoadingFinished) ID() string   { return string(e.RequestID) }

func (*RequestWillBeSent) event() {}
func (*ResponseReceived) event()  {}
func (*DataReceived) event()      {}
func (*LoadingFinished) event()   {}
