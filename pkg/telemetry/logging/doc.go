// Package logging builds the process slog logger.
//
// # Overview
//
// Everything in relay logs through log/slog with injected loggers. This
// package only constructs the root handler:
//   - JSON and text formats from log/slog
//   - a colourised console format (github.com/lmittmann/tint)
//   - optional credential redaction (API keys, bearer tokens)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "console",
//	    RedactSecrets: true,
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	logger.Info("provider configured",
//	    "provider", "openai",
//	    "api_key", "sk-abc123xyz",  // logged as "sk-a***"
//	)
//
// # Redaction
//
// Values under keys that look like credentials (api_key, secret, password,
// authorization, access_token) are masked to a short prefix. Other string
// values, and error messages, have embedded keys masked:
//
//   - API keys: sk-abc123xyz → sk-***
//   - Bearer tokens: Bearer abc.def → Bearer ***
package logging
