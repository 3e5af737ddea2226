package cdp

import (
	"pagegraph/pkg/traffic"

	"github.com/mafredri/cdp/protocol/network"
)

// 协议中的 initiator.type 取值
const (
	initiatorOther  = "other"
	initiatorParser = "parser"
	initiatorScript = "script"
)

// ToNeutralRequest 将 CDP 事件转换为中立 Request 模型
func ToNeutralRequest(ev *network.RequestWillBeSentReply) *traffic.Request {
	req := traffic.NewRequest()
	req.ID = string(ev.RequestID)
	req.URL = ev.Request.URL
	req.Method = ev.Request.Method
	req.DocumentURL = ev.DocumentURL
	req.Initiator = ToInitiator(ev.Initiator)
	return req
}

// ToNeutralResponse 将 CDP 事件转换为中立 Response 模型
func ToNeutralResponse(ev *network.ResponseReceivedReply) *traffic.Response {
	res := traffic.NewResponse()
	res.URL = ev.Response.URL
	res.StatusCode = int(ev.Response.Status)
	res.MimeType = ev.Response.MimeType
	return res
}

// ToInitiator 将协议 initiator 转换为发起者和类型；只取顶层调用栈，不追溯异步父栈
func ToInitiator(ini network.Initiator) traffic.Initiator {
	switch string(ini.Type) {
	case initiatorOther:
		return traffic.UserInitiator{}
	case initiatorParser:
		p := traffic.ParserInitiator{}
		if ini.URL != nil {
			p.URL = *ini.URL
		}
		return p
	case initiatorScript:
		if ini.Stack == nil {
			return traffic.ScriptInitiator{}
		}
		s := traffic.ScriptInitiator{
			HasStack:  true,
			FrameURLs: make([]string, 0, len(ini.Stack.CallFrames)),
		}
		for _, f := range ini.Stack.CallFrames {
			s.FrameURLs = append(s.FrameURLs, f.URL)
		}
		return s
	default:
		return traffic.UnknownInitiator{Type: string(ini.Type)}
	}
}
