package enums

import "fmt"

// PushPlatform identifies the device platform behind a push token.
type PushPlatform string

const (
	PushPlatformIOS     PushPlatform = "ios"
	PushPlatformAndroid PushPlatform = "android"
	PushPlatformWeb     PushPlatform = "web"
)

var validPushPlatforms = []PushPlatform{
	PushPlatformIOS,
	PushPlatformAndroid,
	PushPlatformWeb,
}

// String implements fmt.Stringer.
func (p PushPlatform) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PushPlatform) IsValid() bool {
	for _, candidate := range validPushPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePushPlatform converts raw input into a PushPlatform.
func ParsePushPlatform(value string) (PushPlatform, error) {
	for _, candidate := range validPushPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid push platform %q", value)
}
