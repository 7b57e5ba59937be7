// Package processing holds the pre-call estimation helpers.
//
//   - tokens: character-ratio token estimation for prompts
//   - costs: per-model pricing with prefix matching and hot reload
//
// Budget checks price a call before it is made from estimated tokens, and
// book the actual spend afterwards from provider-reported usage.
package processing
