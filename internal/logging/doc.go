// Package logging provides the structured logger shared by the access
// control engine.
//
// Loggers are created from a Config and write through zerolog in either
// JSON or console text form:
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "/var/log/oba-aci.log",
//	})
//	defer logger.Close()
//
// Entries take alternating keys and values:
//
//	logger.Warn("aci rejected", "dn", holder.String(), "error", err)
//
// WithFields and WithRequestID return child loggers that stamp every entry.
// ForRequest attaches a fresh request ID. The ACI manager tags the lines of
// each bootstrap reload with one.
//
// NewNop discards everything and is the default when no logger is supplied.
package logging
