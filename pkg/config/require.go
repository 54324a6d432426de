package config

import "fmt"

// RequireNonEmpty takes value/name pairs and reports the first empty value.
func RequireNonEmpty(pairs ...string) error {
	if len(pairs)%2 != 0 {
		return fmt.Errorf("RequireNonEmpty: odd number of arguments")
	}
	for i := 0; i < len(pairs); i += 2 {
		if pairs[i] == "" {
			return fmt.Errorf("missing required env %s", pairs[i+1])
		}
	}
	return nil
}
