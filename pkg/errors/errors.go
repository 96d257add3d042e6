// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package errors

import "encoding/json"

// Error is a chain of messages where each layer wraps the one below it.
type Error interface {
	// Error implements the error interface.
	Error() string

	// Msg returns the message of the outermost layer.
	Msg() string

	// Err returns the wrapped layer, or nil.
	Err() Error

	// MarshalJSON encodes the two outermost layers.
	MarshalJSON() ([]byte, error)
}

var _ Error = (*chainError)(nil)

type chainError struct {
	msg string
	err Error
}

// New returns an Error that formats as the given text.
func New(text string) Error {
	return &chainError{msg: text}
}

func (ce *chainError) Error() string {
	if ce == nil {
		return ""
	}
	if ce.err == nil {
		return ce.msg
	}
	return ce.msg + " : " + ce.err.Error()
}

func (ce *chainError) Msg() string {
	return ce.msg
}

func (ce *chainError) Err() Error {
	return ce.err
}

// Unwrap exposes the wrapped layer to the standard library errors package.
func (ce *chainError) Unwrap() error {
	if ce.err == nil {
		return nil
	}
	return ce.err
}

func (ce *chainError) MarshalJSON() ([]byte, error) {
	var cause string
	if e := ce.Err(); e != nil {
		cause = e.Msg()
	}
	return json.Marshal(struct {
		Err string `json:"error"`
		Msg string `json:"message"`
	}{
		Err: cause,
		Msg: ce.Msg(),
	})
}

// Contains reports whether e2 matches e1 or any layer wrapped by e1.
// Layers are compared by message.
func Contains(e1, e2 error) bool {
	if e1 == nil || e2 == nil {
		return e2 == e1
	}
	ce, ok := e1.(Error)
	if !ok {
		return e1.Error() == e2.Error()
	}
	if ce.Msg() == e2.Error() {
		return true
	}
	if ce.Err() == nil {
		return false
	}
	return Contains(ce.Err(), e2)
}

// Wrap returns an Error whose outer layer is wrapper and inner layers are err.
func Wrap(wrapper, err error) error {
	if wrapper == nil || err == nil {
		return wrapper
	}
	msg := wrapper.Error()
	if w, ok := wrapper.(Error); ok {
		msg = w.Msg()
	}
	return &chainError{
		msg: msg,
		err: cast(err),
	}
}

// Unwrap splits err into its outermost layer and the rest of the chain.
func Unwrap(err error) (error, error) {
	ce, ok := err.(Error)
	if !ok {
		return nil, err
	}
	if ce.Err() == nil {
		return nil, New(ce.Msg())
	}
	return New(ce.Msg()), ce.Err()
}

func cast(err error) Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(Error); ok {
		return e
	}
	return &chainError{msg: err.Error()}
}
