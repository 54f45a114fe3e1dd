package types

// FetchRequest is the structured outbound HTTP request a guest hands to the
// fetch capability. Compiled guests serialize it as JSON into linear memory;
// scripted guests pass a native object with the same fields.
type FetchRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    *string           `json:"body,omitempty"`
}

// FetchFailure describes why a fetch capability call produced no HTTP
// response. It travels inside FetchResult so the guest can observe and react
// to the failure; it is never surfaced as a host error.
type FetchFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FetchResult is the structured response of one fetch capability call.
// Status 0 means no HTTP exchange happened and Error is populated.
type FetchResult struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
	Error   *FetchFailure     `json:"error,omitempty"`
}
