// Relay makes model calls resilient: bounded exponential backoff, client-side
// rate limiting, ordered fallback across models and spend budgets.
//
// Usage:
//
//	# Validate a configuration file
//	relay validate --config relay.yaml
//
//	# Price a call before making it
//	relay estimate --model gpt-4o --input 1200 --output 400
//
//	# Exercise the call layer against simulated flaky providers
//	relay simulate --calls 500 --failure-rate 0.3 --metrics-addr :9090
//
//	# Send one prompt through the configured providers
//	relay run --config relay.yaml --prompt "Summarize the incident report"
//
//	# Show version information
//	relay version
package main

func main() {
	Execute()
}
