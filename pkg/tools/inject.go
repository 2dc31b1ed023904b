package tools

import "github.com/rhuss/outings/pkg/debug"

// ParamUserID is the caller-identity parameter bound from the session.
const ParamUserID = "user_id"

// Scope carries the caller-scoped values the orchestrator owns.
type Scope struct {
	UserID string
}

// values returns the caller-scoped parameters keyed by parameter name.
func (s Scope) values() map[string]string {
	return map[string]string{ParamUserID: s.UserID}
}

// Inject binds caller-scoped values into args for every caller-scoped
// parameter the descriptor requires. Model-supplied values for those
// parameters are always overwritten. args may be nil.
func Inject(desc Descriptor, args Args, scope Scope) Args {
	if args == nil {
		args = Args{}
	}
	for param, value := range scope.values() {
		if !desc.Requires(param) {
			continue
		}
		if supplied, ok := args[param]; ok && supplied != value {
			debug.Log("tools", "overriding model-supplied caller parameter",
				"tool", desc.Name,
				"param", param,
				"supplied", supplied,
			)
		}
		args[param] = value
	}
	return args
}
