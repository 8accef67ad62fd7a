package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
)

const (
	TraceId   string = "trace_id"
	RequestId string = "request_id"
	OrderId   string = "order_id"
)

// Date layouts used on the wire and by the upstream treasury feed.
const (
	DateLayout         string = "2006-01-02"
	UpstreamDateLayout string = "01/02/2006"
)

// YieldSource is reported in range responses.
const YieldSource string = "treasury.gov"

type OrderEventType string

const (
	OrderEventCreated OrderEventType = "order_created"
)
