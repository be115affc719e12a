// Package seccomp provides a generated filter format for seccomp filter
// loaded by the child before it requests ptrace.
package seccomp

// Action is seccomp action applied to a syscall
type Action uint32

// Action defines seccomp action to the syscall
// default value 0 is invalid.
// There is no trace action since the tracee never gets PTRACE_O_TRACESECCOMP
const (
	ActionAllow Action = iota + 1
	ActionErrno
	ActionKill
)

var actionString = []string{
	"invalid",
	"allow",
	"errno",
	"kill",
}

// WithReturnCode set the return code when action is errno
func (a Action) WithReturnCode(code int16) Action {
	return a.Action() | Action(code)<<16
}

// ReturnCode get the return code
func (a Action) ReturnCode() int16 {
	return int16(a >> 16)
}

// Action get the basic action
func (a Action) Action() Action {
	return Action(a & 0xffff)
}

func (a Action) String() string {
	i := int(a.Action())
	if i < len(actionString) {
		return actionString[i]
	}
	return actionString[0]
}
