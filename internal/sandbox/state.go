// Package sandbox provisions the isolated runtime that builds and serves the
// generated project for live preview. One provisioning attempt is made per
// process session; failure is terminal until restart.
package sandbox

import "errors"

// State of the provisioning state machine. Transitions are write-once and
// strictly forward; Failed is terminal.
type State string

const (
	StateUninitialized          State = "UNINITIALIZED"
	StateBooting                State = "BOOTING"
	StateExtractingTemplate     State = "EXTRACTING_TEMPLATE"
	StateInstallingDependencies State = "INSTALLING_DEPENDENCIES"
	StateServing                State = "SERVING"
	StateReady                  State = "READY"
	StateFailed                 State = "FAILED"
)

// ErrProvisioning wraps any boot, extraction, install, or serve failure.
var ErrProvisioning = errors.New("sandbox: provisioning failed")

// ServerInfo describes the dev server once it announces it is listening.
type ServerInfo struct {
	Port int
	URL  string
}
