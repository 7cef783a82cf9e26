// Package logging provides leveled logging on top of the standard library
// log package. The level is read once from the DEBUG and LOG_LEVEL
// environment variables, defaulting to info.
package logging
