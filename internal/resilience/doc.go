// Package resilience groups the fault tolerance building blocks used
// around external calls: the LLM providers, Unsplash, and WordPress are
// all third-party services that fail, throttle, and hang independently
// of us.
//
// Subpackages:
//   - circuitbreaker: stops hammering a provider that is already down
//   - retry: exponential backoff with jitter for transient failures
//
//	cb := circuitbreaker.New(circuitbreaker.DefaultConfig("wordpress"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return publishPost(ctx, post)
//	})
//
//	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
//	    return fetchPhoto(ctx, query)
//	})
package resilience
