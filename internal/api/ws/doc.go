// Package ws streams permission group screens over WebSocket.
//
// A client connects to /groups/:group/stream and receives every categorized
// view the group's model publishes, plus the blocked status of the group's
// sensor when the platform has one. Frames are coalesced per type, so a slow
// client skips intermediate views but always receives the latest one.
//
// Message Types (Client → Server):
//   - show_system: Toggle the "show system apps" setting ({"show": true})
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - subscribed: Connection accepted, carries the subscriber id
//   - view: Categorized view of the group
//   - sensor_status: Blocked status of the group's sensor
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, metrics, logger)
//	router.GET("/groups/:group/stream", handler.Stream)
package ws
