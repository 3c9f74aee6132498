package hcl_adapter

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/adroit-lang/adroit/internal/ctxlog"
)

// evalContext exposes `env`, `home` and `cache_dir` to project file
// expressions, plus a few string helpers.
func (l *Loader) evalContext(ctx context.Context) *hcl.EvalContext {
	env := make(map[string]cty.Value, len(l.env))
	for name, value := range l.env {
		env[name] = cty.StringVal(value)
	}
	envVal := cty.EmptyObjectVal
	if len(env) > 0 {
		envVal = cty.ObjectVal(env)
	}

	ctxlog.FromContext(ctx).Debug("Building HCL evaluation context.",
		"env_vars", len(env), "home", l.home, "cache_dir", l.cacheDir)

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":       envVal,
			"home":      cty.StringVal(l.home),
			"cache_dir": cty.StringVal(l.cacheDir),
		},
		Functions: map[string]function.Function{
			"coalesce":  stdlib.CoalesceFunc,
			"lookup":    stdlib.LookupFunc,
			"lower":     stdlib.LowerFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"upper":     stdlib.UpperFunc,
		},
	}
}
