// Package km3db manages authenticated access to the KM3NeT oracle
// database web API. The Client resolves a session cookie once per
// instance — from a whitelisted-host shortcut, environment variables, the
// persisted cookie file or an interactive prompt — and attaches it to
// every subsequent GET. Transport failures degrade to an empty result
// with a log record instead of an error, mirroring the behaviour of the
// database's own scripting clients.
package km3db
