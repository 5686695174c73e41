package dnsverify

// Record is a single DNS record observed during verification. TTL is zero
// when the underlying resolver does not expose it.
type Record struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
	TTL   uint32 `json:"ttl,omitempty"`
}

// Result is the outcome of a single verification or connectivity check.
// DNS-level failures are reported here, not as Go errors: Success is false
// and Error carries a user-safe message classified by Code.
type Result struct {
	Success        bool     `json:"success"`
	Found          bool     `json:"found"`
	Records        []Record `json:"records,omitempty"`
	ResponseTimeMS int64    `json:"response_time_ms"`
	Error          string   `json:"error,omitempty"`
	Code           Code     `json:"code,omitempty"`
}

func failure(code Code, msg string, elapsedMS int64) *Result {
	return &Result{
		Success:        false,
		Found:          false,
		ResponseTimeMS: elapsedMS,
		Error:          msg,
		Code:           code,
	}
}
