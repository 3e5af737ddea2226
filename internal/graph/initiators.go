package graph

import (
	"pagegraph/internal/logger"
	"pagegraph/pkg/traffic"

	"github.com/samber/lo"
)

// ExtractInitiators 计算请求的因果发起者URL列表（有序、去重）
//
// 脚本发起时调用栈中的每一帧都视为发起者，而不只是最内层调用者。
// 去重在单个请求内完成，早于构图阶段。
func ExtractInitiators(req *traffic.Request, l logger.Logger) []string {
	switch ini := req.Initiator.(type) {
	case traffic.UserInitiator:
		return []string{}
	case traffic.ParserInitiator:
		if ini.URL == "" {
			l.Debug("解析器发起但缺少URL", "requestId", req.ID)
			return []string{}
		}
		return []string{ini.URL}
	case traffic.ScriptInitiator:
		if !ini.HasStack {
			l.Debug("脚本发起但调用栈为空", "requestId", req.ID)
			return []string{}
		}
		return lo.Uniq(lo.Without(ini.FrameURLs, ""))
	case traffic.UnknownInitiator:
		l.Debug("未知的发起者类型", "requestId", req.ID, "type", ini.Type)
		return []string{}
	default:
		l.Warn("未处理的发起者变体", "requestId", req.ID)
		return []string{}
	}
}
