// Package protoconnect wires the pos.v1 services to Connect handlers and clients.
//
// Every handler and client built here speaks the Connect protocol with the
// JSON codec, so services can be called with plain HTTP POSTs:
//
//	curl -X POST -H 'Content-Type: application/json' \
//	     -d '{"email":"ana@example.com","password":"secret123"}' \
//	     http://localhost:8080/pos.v1.AuthService/Login
package protoconnect

import (
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
)

// codecName replaces Connect's default protobuf-JSON codec.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
}

// routes dispatches a service's procedures by exact path.
type routes map[string]http.Handler

func (r routes) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h, ok := r[req.URL.Path]
	if !ok {
		http.NotFound(w, req)
		return
	}
	h.ServeHTTP(w, req)
}
