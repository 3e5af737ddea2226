package traffic

// Request 中立的请求模型
type Request struct {
	ID          string    // 请求ID（requestId）
	URL         string    // 完整URL
	Method      string    // HTTP方法
	DocumentURL string    // 所属文档URL
	Initiator   Initiator // 请求发起者
}

// Response 中立的响应模型
type Response struct {
	URL        string // 响应URL
	StatusCode int    // 状态码
	MimeType   string // MIME 类型
}

// Initiator 请求发起者（和类型），只有本包内定义的几种变体
type Initiator interface {
	initiator()
}

// UserInitiator 用户或顶层导航发起，没有因果前驱
type UserInitiator struct{}

// ParserInitiator 由文档解析器发起
type ParserInitiator struct {
	URL string // 为空表示协议中未携带 url
}

// ScriptInitiator 由脚本发起
type ScriptInitiator struct {
	HasStack  bool
	FrameURLs []string // 调用栈各帧的脚本URL，按栈顺序，可能含空串和重复
}

// UnknownInitiator 未识别的发起者类型
type UnknownInitiator struct {
	Type string
}

func (UserInitiator) initiator()    {}
func (ParserInitiator) initiator()  {}
func (ScriptInitiator) initiator()  {}
func (UnknownInitiator) initiator() {}

// NewRequest 创建初始化请求对象
func NewRequest() *Request {
	return &Request{Initiator: UserInitiator{}}
}

// NewResponse 创建初始化响应对象
func NewResponse() *Response {
	return &Response{}
}
