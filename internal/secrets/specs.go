package secrets

// KeySpec defines how to resolve a specific secret.
type KeySpec struct {
	// EnvVars lists environment variables to check, in priority order.
	EnvVars []string

	// Desc is a human-readable description for error messages and CLI display.
	Desc string
}

// knownKeys maps fixed secret names to their resolution specs. Per-repository
// basic-auth credentials are not listed here since repository names are
// user-defined; see RepoCredential for those.
var knownKeys = map[string]KeySpec{
	"proxy_user": {
		EnvVars: []string{"HATCH_PROXY_USER"},
		Desc:    "Username for the configured HTTP/HTTPS proxy",
	},
	"proxy_pass": {
		EnvVars: []string{"HATCH_PROXY_PASS"},
		Desc:    "Password for the configured HTTP/HTTPS proxy",
	},
}
