package constant

// Values of runtime.GOOS the CLI has install hints for.
const (
	Linux   = "linux"
	Darwin  = "darwin"
	Windows = "windows"
	// Android covers Termux builds.
	Android = "android"
)
