// SPDX-License-Identifier: MIT

package recorder

import "errors"

var (
	ErrAlreadyRecording = errors.New("recorder: already recording")
	ErrNotRecording     = errors.New("recorder: not recording")
	ErrNoSource         = errors.New("recorder: no source set")
	ErrNoFrames         = errors.New("recorder: no frames recorded")

	ErrAlreadyPlaying = errors.New("recorder: already playing")
	ErrNotPlaying     = errors.New("recorder: not playing")
	ErrNoRecording    = errors.New("recorder: no recording loaded")
	// ErrPlaybackBusy means the previous playback loop has not exited yet,
	// typically because a frame callback is blocked.
	ErrPlaybackBusy = errors.New("recorder: previous playback still running")

	// ErrInvalidRecording wraps every document validation failure.
	ErrInvalidRecording = errors.New("recorder: invalid recording")
)
