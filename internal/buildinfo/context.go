// Package buildinfo carries build-time metadata (version, commit, date)
// injected via -ldflags, kept separate from runtime configuration.
package buildinfo

// UnknownValue is returned for any field left unset at link time.
const UnknownValue = "unknown"

// BuildInfo exposes build metadata as an interface so callers (the
// --version command, the startup log line) don't depend on the
// concrete Context type.
type BuildInfo interface {
	Version() string
	Commit() string
	Date() string
}

// Context holds the three values set via -ldflags -X at build time.
type Context struct {
	version string
	commit  string
	date    string
}

// NewContext constructs a Context, defaulting any empty field to
// UnknownValue (the state of an unset -ldflags variable in a dev build).
func NewContext(version, commit, date string) *Context {
	return &Context{version: version, commit: commit, date: date}
}

func (c *Context) Version() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c, c.version)
}

func (c *Context) Commit() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c, c.commit)
}

func (c *Context) Date() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c, c.date)
}

// String renders a one-line summary suitable for the startup log and
// `keepclipd --version`.
func (c *Context) String() string {
	return "keepclipd " + c.Version() + " (" + c.Commit() + ", " + c.Date() + ")"
}

func orUnknown(c *Context, v string) string {
	if c == nil || v == "" {
		return UnknownValue
	}
	return v
}
