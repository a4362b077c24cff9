package domain

import "regexp"

// RoomID is the name of a broadcast domain. Messages sent within a room are
// visible only to its current members.
type RoomID string

func (r RoomID) String() string {
	return string(r)
}

var roomNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidRoomName reports whether the name is acceptable as a room identifier.
// The charset mirrors what URLs and storage keys can carry without escaping;
// in particular ":" is excluded because it delimits storage keys.
func ValidRoomName(name string) bool {
	return roomNamePattern.MatchString(name)
}
