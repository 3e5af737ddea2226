package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// 条件匹配模式
const (
	ModeRegex  = "regex"
	ModePrefix = "prefix"
	ModeExact  = "exact"
	ModeGlob   = "glob"
)

// Condition URL 匹配条件
type Condition struct {
	Mode    string `yaml:"mode" json:"mode" validate:"omitempty,oneof=regex prefix exact glob"`
	Pattern string `yaml:"pattern" json:"pattern" validate:"required"`
}

type compiled struct {
	cond Condition
	re   *regexp.Regexp
}

// Engine URL 条件引擎，任一条件命中即视为匹配
type Engine struct {
	conds []compiled
}

// DefaultExclusions 浏览器内部来源：错误页占位文档和扩展页面
func DefaultExclusions() []Condition {
	return []Condition{
		{Mode: ModeRegex, Pattern: `^data:text/html,chromewebdata$`},
		{Mode: ModePrefix, Pattern: "chrome-extension:"},
	}
}

// New 编译条件并创建引擎
func New(conds []Condition) (*Engine, error) {
	e := &Engine{conds: make([]compiled, 0, len(conds))}
	for i, c := range conds {
		cc := compiled{cond: c}
		switch c.Mode {
		case ModeRegex:
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return nil, fmt.Errorf("条件 %d 正则无效: %w", i, err)
			}
			cc.re = re
		case ModeGlob, "":
			cc.cond.Mode = ModeGlob
			cc.re = globToRegexp(c.Pattern)
		case ModePrefix, ModeExact:
		default:
			return nil, fmt.Errorf("条件 %d 模式未知: %q", i, c.Mode)
		}
		e.conds = append(e.conds, cc)
	}
	return e, nil
}

// MustDefault 使用默认排除条件创建引擎
func MustDefault() *Engine {
	e, err := New(DefaultExclusions())
	if err != nil {
		panic(err)
	}
	return e
}

// Match 判断 URL 是否命中任一条件
func (e *Engine) Match(url string) bool {
	if e == nil {
		return false
	}
	for i := range e.conds {
		if e.conds[i].match(url) {
			return true
		}
	}
	return false
}

// Len 条件数量
func (e *Engine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.conds)
}

func (c *compiled) match(url string) bool {
	switch c.cond.Mode {
	case ModePrefix:
		return strings.HasPrefix(url, c.cond.Pattern)
	case ModeExact:
		return url == c.cond.Pattern
	default:
		return c.re.MatchString(url)
	}
}

// globToRegexp 仅支持 * 通配
func globToRegexp(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
