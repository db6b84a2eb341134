// Package services defines the [Source] and [Player] capabilities and implements them for Invidious and mpv.
//
// # Source
//
// [InvidiousSource] talks to the Invidious v1 REST API. Every call waits on a client-side
// rate limiter, runs under its own timeout and walks the configured servers in order
// until one answers with a 2xx status and a decodable body. Searches that ask for more
// than one result kind fan out one request per kind; opening an artist fetches its videos
// and playlists concurrently.
//
// # Player
//
// [MpvPlayer] drives an mpv process through its JSON IPC socket. With a configured binary it
// launches mpv lazily on the first command; without one it attaches to an mpv already listening
// on the socket. Commands are serialised so the adapter is the only writer to the process.
//
// # Raw API
//
// [APIService] issues unparsed GET requests against a backend for debugging from the CLI.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : any Source failure, timeouts included
//   - [shared.ErrInvalidArgument] : blank queries or IDs
//   - [shared.ErrPlayback] : mpv rejected a command or could not be reached
package services
