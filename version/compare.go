package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type semver struct {
	core       [3]int
	prerelease string
}

func parseSemver(s string) (semver, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	s, _, _ = strings.Cut(s, "+")
	core, pre, _ := strings.Cut(s, "-")

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return semver{}, fmt.Errorf("invalid version %q", s)
	}

	var v semver
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return semver{}, fmt.Errorf("invalid version %q", s)
		}
		v.core[i] = n
	}
	v.prerelease = pre
	return v, nil
}

// Compare returns 1 if a is newer than b, -1 if older and 0 if equal.
// A pre-release is older than its release; pre-releases compare lexically.
func Compare(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, err
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, err
	}

	for _, pair := range lo.Zip2(av.core[:], bv.core[:]) {
		switch {
		case pair.A > pair.B:
			return 1, nil
		case pair.A < pair.B:
			return -1, nil
		}
	}

	switch {
	case av.prerelease == bv.prerelease:
		return 0, nil
	case av.prerelease == "":
		return 1, nil
	case bv.prerelease == "":
		return -1, nil
	default:
		return strings.Compare(av.prerelease, bv.prerelease), nil
	}
}
