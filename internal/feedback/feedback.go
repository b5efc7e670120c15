// Package feedback defines the request/response vocabulary shared by a worker
// and its controller when a recoverable error needs a decision.
package feedback

// Kind constrains which responses are legal for a request.
type Kind int

const (
	RetryOrIgnore Kind = iota + 1
	ContinueOrSkip
	SkipOrCancel
	Fatal
)

var kindNames = [...]string{
	RetryOrIgnore:  "RetryOrIgnore",
	ContinueOrSkip: "ContinueOrSkip",
	SkipOrCancel:   "SkipOrCancel",
	Fatal:          "Fatal",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Response is the decision relayed back to a worker.
type Response int

const (
	// RetryContinue retries the failed call, or proceeds anyway for
	// ContinueOrSkip.
	RetryContinue Response = iota + 1
	SkipIgnore
	SkipIgnoreAll
	Cancel
)

var responseNames = [...]string{
	RetryContinue: "RetryContinue",
	SkipIgnore:    "SkipIgnore",
	SkipIgnoreAll: "SkipIgnoreAll",
	Cancel:        "Cancel",
}

func (r Response) String() string {
	if r > 0 && int(r) < len(responseNames) {
		return responseNames[r]
	}
	return "Unknown"
}

// Options returns the responses a presenter may offer for k, in display order.
func Options(k Kind) []Response {
	switch k {
	case RetryOrIgnore, ContinueOrSkip:
		return []Response{RetryContinue, SkipIgnore, SkipIgnoreAll}
	case SkipOrCancel:
		return []Response{SkipIgnore, SkipIgnoreAll, Cancel}
	default:
		return nil
	}
}

// Legal reports whether r answers a request of kind k.
func Legal(k Kind, r Response) bool {
	for _, o := range Options(k) {
		if o == r {
			return true
		}
	}
	return false
}

// Label is the short human name of r in the context of k.
func Label(k Kind, r Response) string {
	switch r {
	case RetryContinue:
		if k == ContinueOrSkip {
			return "Continue"
		}
		return "Retry"
	case SkipIgnore:
		if k == RetryOrIgnore {
			return "Ignore"
		}
		return "Skip"
	case SkipIgnoreAll:
		if k == RetryOrIgnore {
			return "Ignore all"
		}
		return "Skip all"
	case Cancel:
		return "Cancel"
	default:
		return r.String()
	}
}

// Request is one feedback round trip as seen by a presenter.
type Request struct {
	Kind Kind
	Text string
}
