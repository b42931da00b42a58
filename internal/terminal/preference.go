package terminal

// explicitColorPreference returns the user's color choice when one was
// made. NO_COLOR counts even when empty; CLICOLOR_FORCE only when truthy.
func explicitColorPreference(opts Options, env Env) (enabled, ok bool) {
	switch {
	case opts.ForceColor:
		return true, true
	case opts.DisableColor:
		return false, true
	}
	if v, set := env("CLICOLOR_FORCE"); set && isTruthy(v) {
		return true, true
	}
	if _, set := env("NO_COLOR"); set {
		return false, true
	}
	return false, false
}
