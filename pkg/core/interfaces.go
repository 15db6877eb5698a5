package core

// Logger interface for spatial engine logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// Intersectable is anything a ray can strike
type Intersectable interface {
	Intersect(ray Ray) Intersection
}

// NopLogger discards all output
type NopLogger struct{}

func (NopLogger) Printf(format string, args ...interface{}) {}
