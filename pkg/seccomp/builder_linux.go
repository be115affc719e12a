package seccomp

import (
	"fmt"
	"syscall"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	"golang.org/x/net/bpf"
)

// Builder is used to build the filter
type Builder struct {
	// Allow, Deny and Kill syscall names. Deny fails the syscall with DenyErrno
	Allow, Deny, Kill []string
	// Default is the action for syscalls not listed, ActionAllow if zero
	Default Action
	// DenyErrno is the errno returned by denied syscall, EPERM if zero
	DenyErrno syscall.Errno
}

// Build builds the filter
func (b *Builder) Build() (Filter, error) {
	denyErrno := b.DenyErrno
	if denyErrno == 0 {
		denyErrno = syscall.EPERM
	}
	def := b.Default
	if def == 0 {
		def = ActionAllow
	}
	policy := libseccomp.Policy{
		DefaultAction: ToSeccompAction(def),
	}
	addGroup := func(names []string, action Action) {
		if len(names) > 0 {
			policy.Syscalls = append(policy.Syscalls, libseccomp.SyscallGroup{
				Names:  names,
				Action: ToSeccompAction(action),
			})
		}
	}
	addGroup(b.Allow, ActionAllow)
	addGroup(b.Deny, ActionErrno.WithReturnCode(int16(denyErrno)))
	addGroup(b.Kill, ActionKill)

	insts, err := policy.Assemble()
	if err != nil {
		return nil, fmt.Errorf("seccomp: assemble policy: %w", err)
	}
	return ExportBPF(insts)
}

// ExportBPF converts BPF instructions to kernel readable BPF content
func ExportBPF(insts []bpf.Instruction) (Filter, error) {
	raw, err := bpf.Assemble(insts)
	if err != nil {
		return nil, fmt.Errorf("seccomp: assemble bpf: %w", err)
	}
	filter := make(Filter, 0, len(raw))
	for _, r := range raw {
		filter = append(filter, syscall.SockFilter{
			Code: r.Op,
			Jt:   r.Jt,
			Jf:   r.Jf,
			K:    r.K,
		})
	}
	return filter, nil
}

// ToSeccompAction convert action to libseccomp compatible action
func ToSeccompAction(a Action) libseccomp.Action {
	var action libseccomp.Action
	switch a.Action() {
	case ActionAllow:
		action = libseccomp.ActionAllow
	case ActionErrno:
		action = libseccomp.ActionErrno
	default:
		action = libseccomp.ActionKillProcess
	}
	// the least 16 bit of ret value is SECCOMP_RET_DATA
	if code := a.ReturnCode(); code != 0 {
		action |= libseccomp.Action(uint16(code))
	}
	return action
}
