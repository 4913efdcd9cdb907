// Package buildinfo carries version metadata stamped at link time:
//
//	-X 'github.com/m3rciful/placementbot/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/m3rciful/placementbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/placementbot/core/buildinfo.Date=2025-02-10T12:00:00Z'
package buildinfo

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// Release names the build for error reporting, e.g. "placementbot@v1.0.0+abcdef0".
func Release(app string) string {
	return app + "@" + Version + "+" + Commit
}
