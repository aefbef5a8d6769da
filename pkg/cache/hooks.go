package cache

// Hooks are optional observer callbacks registered at construction time.
// Each hook receives the affected key and runs on its own goroutine so a
// slow observer can never block a cache operation. Hooks must be
// side-effect-only; ordering between hook invocations is not guaranteed.
type Hooks struct {
	OnSet   func(key string)
	OnHit   func(key string)
	OnMiss  func(key string)
	OnEvict func(key string)
}
