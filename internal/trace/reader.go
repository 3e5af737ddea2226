package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/morikuni/failure/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrorCode 事件日志错误码
type ErrorCode string

const (
	ErrMalformedTrace ErrorCode = "MalformedTrace"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Record 原始事件记录 {method, params}
type Record struct {
	Method string
	Params string // 原始 JSON
}

// Log 解码后的事件日志
type Log struct {
	Events  []Event
	Records int // 原始记录总数
	Skipped int // 方法未识别而跳过的记录数
}

// Read 读取并解码事件日志
func Read(r io.Reader) (*Log, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取事件日志失败: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes 解析事件日志，支持 JSON 数组、{"events": [...]} 和逐行 JSON
func ParseBytes(data []byte) (*Log, error) {
	records, err := splitRecords(data)
	if err != nil {
		return nil, err
	}
	log := &Log{Records: len(records), Events: make([]Event, 0, len(records))}
	for i, rec := range records {
		ev, err := Decode(rec)
		if err != nil {
			return nil, failure.Wrap(err, failure.Context{"index": strconv.Itoa(i)})
		}
		if ev == nil {
			log.Skipped++
			continue
		}
		log.Events = append(log.Events, ev)
	}
	return log, nil
}

func splitRecords(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var items []gjson.Result
	switch data[0] {
	case '[', '{':
		if !gjson.ValidBytes(data) {
			// 多行对象会被整体判定为无效，回退为逐行解析
			if data[0] == '{' {
				return splitLines(data)
			}
			return nil, malformed("事件日志不是合法的 JSON", -1)
		}
		root := gjson.ParseBytes(data)
		if root.IsObject() {
			if events := root.Get("events"); events.IsArray() {
				root = events
			} else {
				items = []gjson.Result{root}
				break
			}
		}
		items = root.Array()
	default:
		return nil, malformed("事件日志既不是 JSON 数组也不是逐行 JSON", -1)
	}
	return toRecords(items)
}

func splitLines(data []byte) ([]Record, error) {
	var (
		items []gjson.Result
		err   error
	)
	gjson.ForEachLine(string(data), func(r gjson.Result) bool {
		if !gjson.Valid(r.Raw) {
			err = malformed("事件记录不是合法的 JSON", len(items))
			return false
		}
		items = append(items, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	return toRecords(items)
}

func toRecords(items []gjson.Result) ([]Record, error) {
	records := make([]Record, 0, len(items))
	for i, it := range items {
		if !it.IsObject() {
			return nil, malformed("事件记录必须是对象", i)
		}
		method := it.Get("method")
		if method.Type != gjson.String {
			return nil, malformed("事件记录缺少 method", i)
		}
		params := it.Get("params")
		if !params.IsObject() {
			return nil, malformed("事件记录缺少 params", i)
		}
		records = append(records, Record{Method: method.Str, Params: params.Raw})
	}
	return records, nil
}

// Decode 按 method 解码单条记录，未识别的方法返回 nil, nil
func Decode(rec Record) (Event, error) {
	switch rec.Method {
	case MethodRequestWillBeSent, MethodResponseReceived, MethodDataReceived, MethodLoadingFinished:
	default:
		return nil, nil
	}
	params := rec.Params
	if gjson.Get(params, "requestId").Type != gjson.String {
		return nil, malformed("params 缺少 requestId", -1)
	}

	switch rec.Method {
	case MethodRequestWillBeSent:
		for _, path := range []string{"request.url", "request.method", "initiator.type"} {
			if !gjson.Get(params, path).Exists() {
				return nil, malformed("params 缺少 "+path, -1)
			}
		}
		redirect := gjson.Get(params, "redirectResponse")
		ev := &RequestWillBeSent{Redirect: truthy(redirect)}
		if redirect.Exists() && !redirect.IsObject() {
			// 非对象的真值只作为重定向标记，避免类型化解码失败
			var err error
			if params, err = sjson.Delete(params, "redirectResponse"); err != nil {
				return nil, failure.Wrap(err)
			}
		}
		if err := unmarshal(params, &ev.RequestWillBeSentReply); err != nil {
			return nil, err
		}
		return ev, nil
	case MethodResponseReceived:
		if !gjson.Get(params, "response").IsObject() {
			return nil, malformed("params 缺少 response", -1)
		}
		ev := &ResponseReceived{}
		if err := unmarshal(params, &ev.ResponseReceivedReply); err != nil {
			return nil, err
		}
		return ev, nil
	case MethodDataReceived:
		if gjson.Get(params, "dataLength").Type != gjson.Number {
			return nil, malformed("params 缺少 dataLength", -1)
		}
		ev := &DataReceived{}
		if err := unmarshal(params, &ev.DataReceivedReply); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		ev := &LoadingFinished{}
		if err := unmarshal(params, &ev.LoadingFinishedReply); err != nil {
			return nil, err
		}
		return ev, nil
	}
}

func unmarshal(params string, v any) error {
	if err := json.Unmarshal([]byte(params), v); err != nil {
		return failure.New(ErrMalformedTrace,
			failure.Message("事件参数解码失败"),
			failure.Context{"error": err.Error()},
		)
	}
	return nil
}

func malformed(msg string, index int) error {
	ctx := failure.Context{}
	if index >= 0 {
		ctx["index"] = strconv.Itoa(index)
	}
	return failure.New(ErrMalformedTrace, failure.Message(msg), ctx)
}

// truthy 与 JavaScript 真值语义一致
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return true
	}
}
