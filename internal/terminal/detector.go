package terminal

import "strings"

// ciEnvVars are set by common CI systems.
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
	"CIRCLECI",
	"TRAVIS",
	"TF_BUILD",
}

func detectInteractive(opts Options, env Env, isTerminal func() bool) bool {
	switch {
	case opts.ForceInteractive:
		return true
	case opts.ForceNonInteractive:
		return false
	case isCI(env):
		return false
	default:
		return isTerminal()
	}
}

// isCI treats any CI marker as set, except CI=false/0/no.
func isCI(env Env) bool {
	for _, name := range ciEnvVars {
		v, ok := env(name)
		if !ok || v == "" {
			continue
		}
		if name == "CI" {
			lower := strings.ToLower(strings.TrimSpace(v))
			return lower != "false" && lower != "0" && lower != "no"
		}
		return true
	}
	return false
}
