// Package async contains helpers for running functions in goroutines.
package async

// Run calls f in a new goroutine, returning a channel that yields its error.
func Run(f func() error) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- f()
	}()
	return result
}
