package domain

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
)

// Status is the variant tag of a Response
type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Response wraps the outcome of an asynchronous operation. It is a closed
// union of Loading, Success(data) and Error(code); values are built only by
// the constructors below.
type Response[T any] struct {
	status Status
	data   T
	code   apperrors.ErrCode
}

// Loading returns the non-terminal in-progress variant
func Loading[T any]() Response[T] {
	return Response[T]{status: StatusLoading}
}

// Success returns the terminal success variant carrying data
func Success[T any](data T) Response[T] {
	return Response[T]{status: StatusSuccess, data: data}
}

// Failure returns the terminal error variant carrying a classification code
func Failure[T any](code apperrors.ErrCode) Response[T] {
	if code == "" {
		code = apperrors.ErrCodeGeneric
	}
	return Response[T]{status: StatusError, code: code}
}

func (r Response[T]) Status() Status { return r.status }

func (r Response[T]) IsLoading() bool { return r.status == StatusLoading }

func (r Response[T]) IsSuccess() bool { return r.status == StatusSuccess }

func (r Response[T]) IsError() bool { return r.status == StatusError }

// IsTerminal reports whether r ends an operation's response sequence
func (r Response[T]) IsTerminal() bool { return r.status != StatusLoading }

// Data returns the success payload
func (r Response[T]) Data() (T, bool) {
	return r.data, r.status == StatusSuccess
}

// Code returns the error classification
func (r Response[T]) Code() (apperrors.ErrCode, bool) {
	return r.code, r.status == StatusError
}

func (r Response[T]) String() string {
	switch r.status {
	case StatusSuccess:
		return fmt.Sprintf("Success(%v)", r.data)
	case StatusError:
		return fmt.Sprintf("Error(%s)", r.code)
	default:
		return "Loading"
	}
}

// Match folds r by variant. All three handlers are required.
func Match[T, R any](r Response[T], onLoading func() R, onSuccess func(T) R, onError func(apperrors.ErrCode) R) R {
	switch r.status {
	case StatusSuccess:
		return onSuccess(r.data)
	case StatusError:
		return onError(r.code)
	default:
		return onLoading()
	}
}

// Map transforms the success payload and keeps the other variants
func Map[T, R any](r Response[T], fn func(T) R) Response[R] {
	return Match(r,
		Loading[R],
		func(data T) Response[R] { return Success(fn(data)) },
		Failure[R],
	)
}

type responseJSON[T any] struct {
	Status string     `json:"status"`
	Data   *T         `json:"data,omitempty"`
	Error  *errorJSON `json:"error,omitempty"`
}

type errorJSON struct {
	Code apperrors.ErrCode `json:"code"`
}

func (r Response[T]) MarshalJSON() ([]byte, error) {
	out := responseJSON[T]{Status: r.status.String()}
	switch r.status {
	case StatusSuccess:
		out.Data = &r.data
	case StatusError:
		out.Error = &errorJSON{Code: r.code}
	}
	return json.Marshal(out)
}

func (r *Response[T]) UnmarshalJSON(b []byte) error {
	var in responseJSON[T]
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	switch in.Status {
	case "loading":
		*r = Loading[T]()
	case "success":
		var data T
		if in.Data != nil {
			data = *in.Data
		}
		*r = Success(data)
	case "error":
		code := apperrors.ErrCodeGeneric
		if in.Error != nil {
			code = in.Error.Code
		}
		*r = Failure[T](code)
	default:
		return fmt.Errorf("unknown response status %q", in.Status)
	}
	return nil
}
