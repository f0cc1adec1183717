package constants

const (
	APIBasePath             = "/api/v1"
	ContentTypeHeaderName   = "Content-Type"
	CorrelationIDHeaderName = "X-Correlation-ID"
	VisitorIDHeaderName     = "X-Visitor-ID"
	VisitorCookieName       = "cc_visitor"
	ContentTypeJSON         = "application/json"

	// CorrelationIDContextKey is the gin context key holding the request correlation id.
	CorrelationIDContextKey = "correlation_id"
	// VisitorIDContextKey is the gin context key holding the resolved visitor id.
	VisitorIDContextKey = "visitor_id"

	HeaderContentType = ContentTypeHeaderName
)
