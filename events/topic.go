package events

import (
	"fmt"
	"strings"
)

// Topic families.
const (
	FamilyUser       = "user"
	FamilyGroup      = "group"
	FamilyReflection = "reflection"
)

func UserTopic(userID string) string { return FamilyUser + ":" + userID }

func GroupTopic(groupID string) string { return FamilyGroup + ":" + groupID }

func ReflectionTopic(reflectionID string) string { return FamilyReflection + ":" + reflectionID }

// ScopeTopic picks the group topic when groupID is set, else the user topic.
func ScopeTopic(userID string, groupID *string) string {
	if groupID != nil && *groupID != "" {
		return GroupTopic(*groupID)
	}
	return UserTopic(userID)
}

// ParseTopic splits a topic into family and id.
func ParseTopic(topic string) (family, id string, err error) {
	family, id, ok := strings.Cut(topic, ":")
	if !ok || id == "" {
		return "", "", fmt.Errorf("malformed topic %q", topic)
	}
	switch family {
	case FamilyUser, FamilyGroup, FamilyReflection:
		return family, id, nil
	}
	return "", "", fmt.Errorf("unknown topic family %q", family)
}
