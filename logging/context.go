package logging

import "context"

type debugModeKey struct{}

// EnableDebugMode marks ctx so that CDebugw logs regardless of the logger's level.
func EnableDebugMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, debugModeKey{}, true)
}

// IsDebugMode reports whether ctx was marked by EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	enabled, _ := ctx.Value(debugModeKey{}).(bool)
	return enabled
}
