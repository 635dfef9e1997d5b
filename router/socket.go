package router

import (
	"fmt"
	"log/slog"

	"github.com/Top-Pesinde/backend-sub001/chat"
	"github.com/Top-Pesinde/backend-sub001/socketio"

	"github.com/zishang520/socket.io/v2/socket"
)

func Socket(server *socketio.Server, handler *chat.Handler, log *slog.Logger) {
	server.OnConnection(func(raw *socket.Socket) {
		client := socketio.NewClient(raw, log)
		if client == nil {
			raw.Disconnect(true)
			return
		}

		handler.Connected(client)

		for _, event := range handler.Events() {
			client.On(event, func(args ...any) {
				handler.Handle(client, event, args...)
			})
		}

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				reason = fmt.Sprint(args[0])
			}
			handler.Disconnected(client, reason)
		})
	})
}
