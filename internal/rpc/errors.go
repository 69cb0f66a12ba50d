package rpc

import "fmt"

// TransportError is an HTTP or connection level failure: the request
// never produced a decodable JSON-RPC envelope.
type TransportError struct {
	Status int // 0 when the request never got a response
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("rpc transport error: status code %d", e.Status)
	}
	return fmt.Sprintf("rpc transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RPCError is a node-reported error: the envelope decoded fine but
// carried an "error" member instead of a result.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
