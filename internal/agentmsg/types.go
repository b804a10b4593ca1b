// Package agentmsg defines the wire shapes the recovery manager consumes
// from and produces for its external collaborators: the server-registration
// client, the live-status probe and the action dispatcher. Nothing in this
// package talks to a network or a queue — it only describes the payloads
// those collaborators exchange with the Controller.
package agentmsg

// LifecycleState is a component's INIT/INSTALLED/STARTED lifecycle value.
// The empty string means "never reported" (current) or "unknown" (desired).
type LifecycleState string

const (
	StateInit      LifecycleState = "INIT"
	StateInstalled LifecycleState = "INSTALLED"
	StateStarted   LifecycleState = "STARTED"
	StateUnknown   LifecycleState = ""
)

// RecoveryMode selects which RecoveryPolicy table applies.
type RecoveryMode string

const (
	ModeDisabled  RecoveryMode = "DISABLED"
	ModeAutoStart RecoveryMode = "AUTO_START"
	ModeFull      RecoveryMode = "FULL"
)

// RegistrationType is the wire value of recoveryConfig.type.
type RegistrationType string

const (
	RegistrationDefault   RegistrationType = "DEFAULT"
	RegistrationAutoStart RegistrationType = "AUTO_START"
	RegistrationFull      RegistrationType = "FULL"
)

// PayloadLevel tags how much detail a STATUS_COMMAND carries.
type PayloadLevel string

const (
	PayloadDefault          PayloadLevel = "DEFAULT"
	PayloadMinimal          PayloadLevel = "MINIMAL"
	PayloadExecutionCommand PayloadLevel = "EXECUTION_COMMAND"
)

// CommandType distinguishes the three wire command families the manager
// deals with.
type CommandType string

const (
	CommandTypeStatus        CommandType = "STATUS_COMMAND"
	CommandTypeExecution     CommandType = "EXECUTION_COMMAND"
	CommandTypeAutoExecution CommandType = "AUTO_EXECUTION_COMMAND"
)

// RoleCommand is the action a server-driven EXECUTION_COMMAND requests, or
// the action this module emits in a built recovery command.
type RoleCommand string

const (
	RoleCommandInstall RoleCommand = "INSTALL"
	RoleCommandStart   RoleCommand = "START"
	RoleCommandCustom  RoleCommand = "CUSTOM_COMMAND"
)

// Template is the opaque execution-command body delivered by the server and
// replayed, with a few overridden fields, as a recovery command. It is
// intentionally a generic tree (map[string]any, with nested maps/slices of
// the same) rather than a fixed struct: the server may add fields the agent
// has never seen, and those must survive a round trip through CommandCache
// and buildCommand untouched.
type Template map[string]any

// RegistrationResponse is the recoveryConfig block of a registration
// response.
type RegistrationResponse struct {
	Type             RegistrationType `json:"type"`
	MaxCount         any              `json:"maxCount,omitempty"`
	WindowInMinutes  any              `json:"windowInMinutes,omitempty"`
	RetryGap         any              `json:"retryGap,omitempty"`
	MaxLifetimeCount any              `json:"maxLifetimeCount,omitempty"`
}

// StatusCommand is a STATUS_COMMAND payload. ExecutionCommandDetails is
// required iff PayloadLevel == PayloadExecutionCommand.
type StatusCommand struct {
	CommandType             CommandType    `json:"commandType"`
	ComponentName           string         `json:"componentName"`
	DesiredState            LifecycleState `json:"desiredState"`
	HasStaleConfigs         bool           `json:"hasStaleConfigs"`
	PayloadLevel            PayloadLevel   `json:"payloadLevel"`
	ExecutionCommandDetails Template       `json:"executionCommandDetails,omitempty"`
}

// ExecutionCommand is an EXECUTION_COMMAND payload, consumed for
// desired-state tracking only.
type ExecutionCommand struct {
	CommandType CommandType `json:"commandType"`
	Role        string      `json:"role"`
	RoleCommand RoleCommand `json:"roleCommand"`
}

// RecoveryCommand is a produced auto-execution command: a deep copy of the
// cached template with roleCommand, commandType, taskId and (for RESTART)
// hostLevelParams.custom_command overridden.
type RecoveryCommand struct {
	Component string
	Body      Template
}
