package profile

import (
	"fmt"
	"regexp"
)

// Names key the [profiles.<name>] tables and the profile directories. A
// leading letter or digit keeps them from reading as flags.
var nameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// ValidateName checks that name can be used as a profile name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid profile name %q: use up to 32 lowercase letters, digits, '-' or '_', starting with a letter or digit", name)
	}
	return nil
}
