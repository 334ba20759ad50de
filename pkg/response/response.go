package response

// APIResponseCode is the machine-readable result code inside the response
// envelope. Codes group user-facing error classes: "fix your request",
// "try again later", "contact support" and "configuration problem" map to
// distinct codes so clients can localize without parsing messages.
type APIResponseCode int

const (
	APIResponseCodeOK                  APIResponseCode = 0
	APIResponseCodeBadRequest          APIResponseCode = 40000
	APIResponseCodeForbidden           APIResponseCode = 40300
	APIResponseCodeNotFound            APIResponseCode = 40400
	APIResponseCodeUpstreamError       APIResponseCode = 50200
	APIResponseCodeUpstreamUnavailable APIResponseCode = 50300
	APIResponseCodeError               APIResponseCode = 50000
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:                  "ok",
	APIResponseCodeBadRequest:          "bad request",
	APIResponseCodeForbidden:           "not allowed",
	APIResponseCodeNotFound:            "not found",
	APIResponseCodeUpstreamError:       "payment provider rejected the request, contact support",
	APIResponseCodeUpstreamUnavailable: "payment provider is unavailable, try again later",
	APIResponseCodeError:               "unexpected error",
}

// APIResponse is the generic response envelope used by HTTP APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with code-derived message and optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}
