package compiler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/jsonvalue"
)

// DefaultStatus is served when a response spec names no status.
const DefaultStatus = http.StatusOK

// MaxFixedDelay bounds fixedDelayMilliseconds.
const MaxFixedDelay = time.Hour

// BuildResponse assembles the canned response of a parsed response spec.
func BuildResponse(spec jsonvalue.Value) (*engine.Response, error) {
	resp := &engine.Response{Status: DefaultStatus}

	if v, ok := spec.Get("status"); ok {
		status, isInt := v.Int()
		if !isInt {
			return nil, fmt.Errorf("status %s is not an integer", v.Canonical())
		}
		if status < 100 || status > 599 {
			return nil, fmt.Errorf("status %d is out of range", status)
		}
		resp.Status = status
	}

	if headers, ok := spec.Get("headers"); ok {
		for _, name := range headers.Keys() {
			value, _ := headers.Get(name)
			resp.Headers = append(resp.Headers, engine.Header{Name: name, Value: value.Text()})
		}
	}

	if body, ok := spec.Get("body"); ok {
		if s, isString := body.Str(); isString {
			resp.Body = []byte(s)
		} else {
			resp.Body = []byte(body.Canonical())
			if _, explicit := resp.Header("Content-Type"); !explicit {
				resp.Headers = append(resp.Headers, engine.Header{Name: "Content-Type", Value: "application/json"})
			}
		}
	}

	if v, ok := spec.Get("fixedDelayMilliseconds"); ok {
		ms, isInt := v.Int()
		if !isInt || ms < 0 {
			return nil, fmt.Errorf("fixedDelayMilliseconds %s is not a non-negative integer", v.Canonical())
		}
		if ms > int(MaxFixedDelay/time.Millisecond) {
			return nil, fmt.Errorf("fixedDelayMilliseconds %d exceeds %s", ms, MaxFixedDelay)
		}
		resp.FixedDelay = time.Duration(ms) * time.Millisecond
	}

	return resp, nil
}
