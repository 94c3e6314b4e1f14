package cerr

type Code int

const (
	OK                   = Code(0)
	Unknown              = Code(1)
	InvalidArgument      = Code(2)
	MissingCredential    = Code(3)
	MissingAgentID       = Code(4)
	MissingLocalArtifact = Code(5)
	NotFoundOrAuth       = Code(6)
	RemoteRequestFailed  = Code(7)
	Canceled             = Code(8)
	Internal             = Code(9)
)

var codeNames = map[Code]string{
	OK:                   "ok",
	Unknown:              "unknown",
	InvalidArgument:      "invalid_argument",
	MissingCredential:    "missing_credential",
	MissingAgentID:       "missing_agent_id",
	MissingLocalArtifact: "missing_local_artifact",
	NotFoundOrAuth:       "not_found_or_auth",
	RemoteRequestFailed:  "remote_request_failed",
	Canceled:             "canceled",
	Internal:             "internal",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// ExitCode maps a code to the process exit status. Every failure exits 1.
func (c Code) ExitCode() int {
	if c == OK {
		return 0
	}
	return 1
}

// Fatal reports whether the error is raised before any network call is made.
func (c Code) Fatal() bool {
	switch c {
	case MissingCredential, MissingAgentID, MissingLocalArtifact, InvalidArgument:
		return true
	default:
		return false
	}
}
