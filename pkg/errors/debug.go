package errors

import (
	"errors"
	"fmt"
)

const maxDumpDepth = 8

// ErrorDump is the loggable view of an error chain.
type ErrorDump struct {
	TopMessage    string   `json:"top_message"`
	Code          Code     `json:"code,omitempty"`
	BackendStatus int      `json:"backend_status,omitempty"`
	Retryable     bool     `json:"retryable"`
	Details       any      `json:"details,omitempty"`
	Chain         []string `json:"chain,omitempty"`
	Truncated     bool     `json:"truncated,omitempty"`
}

// Dump flattens err for structured logs. Typed layers render as
// "CODE: message"; the chain stops after maxDumpDepth entries.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.BackendStatus = te.Status()
		d.Retryable = te.Retryable()
		d.Details = te.Details()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if len(d.Chain) == maxDumpDepth {
			d.Truncated = true
			break
		}
		if typed, ok := e.(*Error); ok {
			d.Chain = append(d.Chain, string(typed.Code())+": "+typed.Message())
			continue
		}
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}
