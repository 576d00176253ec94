// Package config provides the configuration object for fpprobe.
//
// The probe itself (iteration count, target page, verification endpoint,
// browser identity, request headers and payload) is fixed and only
// constructed by NewConfig. The environment around it (browser binary,
// output locations, timeouts, history database) may be adjusted through
// a YAML file.
package config
