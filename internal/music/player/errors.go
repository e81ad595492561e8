package player

import "errors"

var (
	// ErrUserNotInVoice is returned when the invoking user is in no voice channel.
	ErrUserNotInVoice = errors.New("you are not in a voice channel")
	// ErrNoActiveSession is returned when the guild has no session, or its
	// session was closed while the operation ran.
	ErrNoActiveSession = errors.New("not in a voice channel")
)
