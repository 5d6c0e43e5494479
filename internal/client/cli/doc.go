// Package cli provides the interactive travelbuddy terminal client.
//
// It wires configuration, the gRPC API client, image acquisition and an
// interactive REPL. After login a background watcher follows the flow the
// server selects for the user (auth, profile_creation or main) and the REPL
// only offers the commands of the current flow.
//
// Key features:
//   - Register / Login / Logout
//   - Show and edit the profile, upload a profile picture
//   - Upload the identification document and the selfie
//   - Submit the verification, inspect or reset the attempt
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
