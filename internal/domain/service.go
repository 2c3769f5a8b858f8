package domain

// Service represents a gRPC service discovered via reflection.
// Methods stays empty after plain service-name discovery; it is only
// populated by explicit method enumeration.
type Service struct {
	Name     string          `json:"name"`
	Methods  []Method        `json:"methods"`
	Metadata ServiceMetadata `json:"metadata"`
}

// Method represents a gRPC method.
type Method struct {
	Name            string `json:"name"`
	InputType       string `json:"input_type"`
	OutputType      string `json:"output_type"`
	ClientStreaming bool   `json:"client_streaming"`
	ServerStreaming bool   `json:"server_streaming"`
}

// MethodType returns the RPC type (Unary, ServerStream, ClientStream, or BidiStream)
func (m Method) MethodType() string {
	if m.ClientStreaming && m.ServerStreaming {
		return "BidiStream"
	}
	if m.ServerStreaming {
		return "ServerStream"
	}
	if m.ClientStreaming {
		return "ClientStream"
	}
	return "Unary"
}
