// Package command maps remote command names to handlers acting on the
// robot drive train.
//
// The registry is closed: only registered names dispatch, anything
// else returns ErrUnknownCommand. The built-in set covers the motion
// commands the controller sends plus shutdown, and applications can
// register their own handlers before the run loop starts.
package command
