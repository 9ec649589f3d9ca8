// api/schemas/login.go
package schemas

// Credentials holds everything needed for one Google-account login attempt.
// The value is treated as immutable for the duration of the attempt.
type Credentials struct {
	Email         string
	Password      string
	RecoveryEmail string
	Proxy         string
	Headless      bool
}

// RequestEvent is a snapshot of a single outbound browser request as seen on
// the CDP network event stream. Only the fields the token extractor needs are
// captured; the event is consumed once and discarded.
type RequestEvent struct {
	URL  string
	Body string
}

// LoginResult is the terminal output of one login attempt. Exactly one is
// produced per attempt and it is never mutated afterwards.
type LoginResult struct {
	Success    bool
	Token      string
	UserAgent  string
	MACAddress string
	Error      string
}
