// Package launch hands process control to the long-running server once
// configuration has been rendered.
//
// On unix the default launcher replaces the current process image, so the
// server inherits the process id and signal handling. The supervising
// launcher is used elsewhere, or on request: it starts the server as a child,
// forwards termination signals to it and reports its exit status.
package launch
