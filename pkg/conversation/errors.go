package conversation

import "errors"

var (
	// ErrSendInFlight is returned by BeginSend while a generation is running.
	ErrSendInFlight = errors.New("a generation is already in progress")

	// ErrNoSession is returned when a lifecycle call arrives while idle.
	ErrNoSession = errors.New("no generation in progress")

	// ErrEmptyResult is returned by CompleteSend when the stream produced no text.
	ErrEmptyResult = errors.New("generation produced no content")

	// ErrClosed is returned once the conversation view has been closed.
	ErrClosed = errors.New("conversation closed")
)
