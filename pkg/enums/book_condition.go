package enums

import "fmt"

// BookCondition describes the physical state of a listed copy.
type BookCondition string

const (
	BookConditionNew        BookCondition = "new"
	BookConditionLikeNew    BookCondition = "like_new"
	BookConditionVeryGood   BookCondition = "very_good"
	BookConditionGood       BookCondition = "good"
	BookConditionAcceptable BookCondition = "acceptable"
)

var validBookConditions = []BookCondition{
	BookConditionNew,
	BookConditionLikeNew,
	BookConditionVeryGood,
	BookConditionGood,
	BookConditionAcceptable,
}

// String implements fmt.Stringer.
func (c BookCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known BookCondition.
func (c BookCondition) IsValid() bool {
	for _, candidate := range validBookConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBookCondition converts a raw string into a BookCondition.
func ParseBookCondition(value string) (BookCondition, error) {
	for _, candidate := range validBookConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid book condition %q", value)
}
