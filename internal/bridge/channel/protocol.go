package channel

import (
	"encoding/json"

	"github.com/sjzar/contactsbridge/internal/errors"
)

// Request 通道请求
//
//	{
//		id?: number | string,
//		method: string,
//		arguments?: object
//	}
type Request struct {
	ID        interface{} `json:"id,omitempty"`
	Method    string      `json:"method"`
	Arguments interface{} `json:"arguments,omitempty"`
}

// Response 通道响应，result 与 error 只会出现一个
//
//	{
//		id?: number | string,
//		result: unknown,
//		error?: {
//			code: string,
//			message: string,
//			details: string | null
//		}
//	}
type Response struct {
	ID     interface{}
	Result interface{}
	Error  *Error
}

type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func NewResponse(id interface{}, result interface{}) *Response {
	return &Response{
		ID:     id,
		Result: result,
	}
}

// NewErrorResponse 非 *errors.Error 的错误按内部错误返回
func NewErrorResponse(id interface{}, err error) *Response {
	e, ok := errors.As(err)
	if !ok {
		e = errors.Internal(err.Error(), err)
	}
	resp := &Response{
		ID: id,
		Error: &Error{
			Code:    e.Code,
			Message: e.Message,
		},
	}
	if e.Detail != "" {
		resp.Error.Details = e.Detail
	}
	return resp
}

func (r *Response) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, 2)
	if r.ID != nil {
		m["id"] = r.ID
	}
	if r.Error != nil {
		m["error"] = r.Error
	} else {
		m["result"] = r.Result
	}
	return json.Marshal(m)
}

func (r *Response) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID     interface{} `json:"id"`
		Result interface{} `json:"result"`
		Error  *Error      `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.ID, r.Result, r.Error = raw.ID, raw.Result, raw.Error
	return nil
}

// Err 将响应中的错误还原为 *errors.Error
func (r *Response) Err() error {
	if r.Error == nil {
		return nil
	}
	e := errors.New(nil, r.Error.Code, r.Error.Message)
	if s, ok := r.Error.Details.(string); ok {
		e.Detail = s
	}
	return e
}
