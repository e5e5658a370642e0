package api

import (
	"io"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
)

// MockResponseBody is a ReadCloser that simulates reading response data
type MockResponseBody struct {
	data   []byte
	pos    int
	closed bool
}

// NewMockResponseBody creates a new MockResponseBody with the given data
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data}
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n = copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	m.closed = true
	return nil
}

// MockHTTPDoer is a mock implementation of HTTPDoer for testing
type MockHTTPDoer struct {
	Response *fhttp.Response
	Err      error
	// DoFunc overrides Response/Err when set
	DoFunc func(req *fhttp.Request) (*fhttp.Response, error)

	mu          sync.Mutex
	LastRequest *fhttp.Request
	LastBody    string
	IdleClosed  bool
}

// Do implements HTTPDoer
func (m *MockHTTPDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.mu.Lock()
	m.LastRequest = req
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.LastBody = string(data)
	}
	m.mu.Unlock()

	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return m.Response, m.Err
}

// CloseIdleConnections records that the client was closed
func (m *MockHTTPDoer) CloseIdleConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IdleClosed = true
}

// newMockResponse builds a response with the given status and body
func newMockResponse(status int, body string) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: status,
		Body:       NewMockResponseBody([]byte(body)),
		Header:     make(fhttp.Header),
	}
}
