package permission

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjzar/contactsbridge/internal/addressbook/datasource"
	"github.com/sjzar/contactsbridge/internal/errors"
)

type memStore struct {
	values map[string]any
	err    error
}

func (s *memStore) Persist(key string, value interface{}) error {
	if s.err != nil {
		return s.err
	}
	if s.values == nil {
		s.values = map[string]any{}
	}
	s.values[key] = value
	return nil
}

type countingPrompter struct {
	answer Answer
	calls  int
}

func (p *countingPrompter) Prompt(ctx context.Context, readOnly bool) (Answer, error) {
	p.calls++
	return p.answer, nil
}

func TestDefaultStatus(t *testing.T) {
	assert.Equal(t, StatusDenied, New(datasource.KindProvider, "", nil, nil).Status())
	assert.Equal(t, StatusNotDetermined, New(datasource.KindGraph, "", nil, nil).Status())
	// graph 词汇不适用于 provider
	assert.Equal(t, StatusDenied, New(datasource.KindProvider, StatusAuthorized, nil, nil).Status())
	assert.Equal(t, StatusLimited, New(datasource.KindGraph, StatusLimited, nil, nil).Status())
}

func TestProviderRequest(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		readOnly   bool
		answer     Answer
		wantResult string
		wantStatus string
		wantPrompt bool
	}{
		{"already granted", StatusGranted, false, AnswerDeny, StatusGranted, StatusGranted, false},
		{"read only held", StatusGrantedReadOnly, true, AnswerDeny, StatusGranted, StatusGrantedReadOnly, false},
		{"upgrade to write", StatusGrantedReadOnly, false, AnswerAllow, StatusGranted, StatusGranted, true},
		{"write refused", StatusDenied, false, AnswerAllowReadOnly, StatusGrantedReadOnly, StatusGrantedReadOnly, true},
		{"read only request", StatusDenied, true, AnswerAllow, StatusGranted, StatusGrantedReadOnly, true},
		{"read only denied", StatusDenied, true, AnswerDeny, StatusDenied, StatusDenied, true},
		{"all denied", StatusDenied, false, AnswerDeny, StatusDenied, StatusDenied, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			p := &countingPrompter{answer: tt.answer}
			m := New(datasource.KindProvider, tt.status, store, p)

			result, err := m.Request(context.Background(), tt.readOnly)
			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, result)
			assert.Equal(t, tt.wantStatus, m.Status())
			assert.Equal(t, tt.wantPrompt, p.calls == 1)
			if tt.wantPrompt {
				assert.Equal(t, tt.wantStatus, store.values[ConfigKey])
			}
		})
	}
}

func TestGraphRequest(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		answer     Answer
		wantResult string
		wantStatus string
		wantPrompt bool
	}{
		{"authorized", StatusAuthorized, AnswerDeny, StatusGranted, StatusAuthorized, false},
		{"limited", StatusLimited, AnswerDeny, StatusGranted, StatusLimited, false},
		{"restricted never prompts", StatusRestricted, AnswerAllow, StatusDenied, StatusRestricted, false},
		{"denied never prompts", StatusDenied, AnswerAllow, StatusDenied, StatusDenied, false},
		{"allow", StatusNotDetermined, AnswerAllow, StatusGranted, StatusAuthorized, true},
		{"allow limited", StatusNotDetermined, AnswerLimited, StatusGranted, StatusLimited, true},
		{"deny", StatusNotDetermined, AnswerDeny, StatusDenied, StatusDenied, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingPrompter{answer: tt.answer}
			m := New(datasource.KindGraph, tt.status, &memStore{}, p)

			result, err := m.Request(context.Background(), false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantResult, result)
			assert.Equal(t, tt.wantStatus, m.Status())
			assert.Equal(t, tt.wantPrompt, p.calls == 1)
		})
	}
}

func TestRequestWithoutPrompter(t *testing.T) {
	m := New(datasource.KindProvider, StatusDenied, nil, nil)
	_, err := m.Request(context.Background(), false)
	assert.Equal(t, errors.CodeNoActivity, errors.CodeOf(err))

	// 已授权时不需要提示器
	m = New(datasource.KindGraph, StatusAuthorized, nil, nil)
	result, err := m.Request(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, result)
}

func TestPersistFailure(t *testing.T) {
	store := &memStore{err: fmt.Errorf("disk full")}
	m := New(datasource.KindProvider, StatusDenied, store, PolicyPrompter(AnswerAllow))

	_, err := m.Request(context.Background(), false)
	assert.Equal(t, errors.CodePermissionError, errors.CodeOf(err))
	assert.Equal(t, StatusDenied, m.Status())
}

func TestCheck(t *testing.T) {
	m := New(datasource.KindProvider, StatusGrantedReadOnly, nil, nil)
	assert.NoError(t, m.Check(false))
	err := m.Check(true)
	assert.Equal(t, errors.CodePermissionDenied, errors.CodeOf(err))

	m = New(datasource.KindGraph, StatusNotDetermined, nil, nil)
	assert.Equal(t, errors.CodePermissionDenied, errors.CodeOf(m.Check(false)))

	m = New(datasource.KindGraph, StatusLimited, nil, nil)
	assert.NoError(t, m.Check(true))
}

func TestNewPolicyPrompter(t *testing.T) {
	p, err := NewPolicyPrompter("allow_read_only")
	require.NoError(t, err)
	answer, err := p.Prompt(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, AnswerAllowReadOnly, answer)

	p, err = NewPolicyPrompter("none")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewPolicyPrompter("maybe")
	assert.Error(t, err)
}

func TestTerminalPrompter(t *testing.T) {
	var out strings.Builder
	p := &TerminalPrompter{In: strings.NewReader("r\n"), Out: &out}
	answer, err := p.Prompt(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, AnswerAllowReadOnly, answer)
	assert.Contains(t, out.String(), "read only")

	p = &TerminalPrompter{In: strings.NewReader(""), Out: &out}
	answer, err = p.Prompt(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, AnswerDeny, answer)
}
