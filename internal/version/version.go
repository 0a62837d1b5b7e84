package version

// Set at build time with -ldflags.
var (
	SoftwareVer   = "dev"
	BuildTime     = ""
	BuildCommitId = ""
)
