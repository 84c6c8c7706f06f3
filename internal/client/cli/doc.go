// Package cli provides the interactive ProjectDesk shell.
//
// The shell is a thin presentation layer over the session store and the
// navigation guard: every "open" goes through the guard, and the prompt
// shows the current route and the signed-in user.
//
// Commands:
//   - register / login / logout
//   - whoami
//   - open <path>
//   - help, exit | quit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or input ends.
package cli
