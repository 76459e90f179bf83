// Package buildinfo reports this toolchain's build identity: a fresh
// run ID and the version, printed by cmd/nevec --version. It is not
// written into the .geada container.
package buildinfo

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"
)

// Version is this core's own release version, checked against
// semver's validity rules at init time rather than trusted as a raw
// string literal.
const Version = "v0.1.0"

func init() {
	if !semver.IsValid(Version) {
		panic(fmt.Sprintf("buildinfo: %q is not a valid semantic version", Version))
	}
}

// Info identifies one compilation run.
type Info struct {
	RunID   uuid.UUID
	Version string
}

// New returns a fresh Info with a newly generated run ID.
func New() Info {
	return Info{RunID: uuid.New(), Version: Version}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s)", i.Version, i.RunID)
}

// CompareVersion reports whether this core's version is newer than
// (1), equal to (0), or older than (-1) other, a valid semver string.
// Returns an error if other isn't valid semver.
func CompareVersion(other string) (int, error) {
	if !semver.IsValid(other) {
		return 0, fmt.Errorf("buildinfo: %q is not a valid semantic version", other)
	}
	return semver.Compare(Version, other), nil
}
