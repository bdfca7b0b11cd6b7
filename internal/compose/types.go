package compose

// Composer describes the behaviour required from a configuration composer.
type Composer interface {
	Compose(base, overrides map[string]any) (map[string]any, error)
}
