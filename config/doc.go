// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and CODERUNNER_* environment variables. It
// covers server transport settings, sandbox timeouts and workspace placement,
// logging, metrics, tracing and per-language toolchain overrides.
//
// Usage:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Run timeout: %s\n", cfg.RunTimeout())
package config
