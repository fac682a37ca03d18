package permission

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Answer 用户对授权提示的回答
type Answer int

const (
	AnswerDeny Answer = iota
	AnswerAllow
	AnswerAllowReadOnly
	AnswerLimited
)

func (a Answer) allowsRead() bool {
	return a == AnswerAllow || a == AnswerAllowReadOnly || a == AnswerLimited
}

func (a Answer) String() string {
	switch a {
	case AnswerAllow:
		return PolicyAllow
	case AnswerAllowReadOnly:
		return PolicyAllowReadOnly
	case AnswerLimited:
		return PolicyLimited
	default:
		return PolicyDeny
	}
}

// Prompter 向用户请求通讯录访问权限
type Prompter interface {
	Prompt(ctx context.Context, readOnly bool) (Answer, error)
}

// 无人值守时的授权策略
const (
	PolicyAllow         = "allow"
	PolicyAllowReadOnly = "allow_read_only"
	PolicyLimited       = "limited"
	PolicyDeny          = "deny"
	PolicyNone          = "none"
)

// PolicyPrompter 按固定策略回答，用于服务模式
type PolicyPrompter Answer

func (p PolicyPrompter) Prompt(ctx context.Context, readOnly bool) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return AnswerDeny, err
	}
	return Answer(p), nil
}

// NewPolicyPrompter 解析授权策略，"none" 表示没有可用的提示器
func NewPolicyPrompter(policy string) (Prompter, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case PolicyAllow, "":
		return PolicyPrompter(AnswerAllow), nil
	case PolicyAllowReadOnly:
		return PolicyPrompter(AnswerAllowReadOnly), nil
	case PolicyLimited:
		return PolicyPrompter(AnswerLimited), nil
	case PolicyDeny:
		return PolicyPrompter(AnswerDeny), nil
	case PolicyNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown permission policy: %q", policy)
}

// TerminalPrompter 在终端上询问用户
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p *TerminalPrompter) Prompt(ctx context.Context, readOnly bool) (Answer, error) {
	if readOnly {
		fmt.Fprint(p.Out, "Allow read access to contacts? [y/N] ")
	} else {
		fmt.Fprint(p.Out, "Allow access to contacts? [y]es / [r]ead only / [l]imited / [N]o ")
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return AnswerDeny, err
	}
	if err := ctx.Err(); err != nil {
		return AnswerDeny, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return AnswerAllow, nil
	case "r", "read":
		return AnswerAllowReadOnly, nil
	case "l", "limited":
		return AnswerLimited, nil
	}
	return AnswerDeny, nil
}
