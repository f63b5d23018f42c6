package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"crm-service/config"
	"crm-service/controller"
	"crm-service/database"
	"crm-service/event"
	"crm-service/event/listener"
	"crm-service/mailer"
	"crm-service/realtime"
	"crm-service/router"
	"crm-service/security"
	"crm-service/socketio"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	log.SetPrefix("crm-service: ")

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "crm-service",
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()

	event.RabbitMQConnect([]string{
		event.QueueNotifications,
		event.QueueNews,
	})

	// Run the queue listeners
	go listener.Notifications(mailer.New())
	go listener.News()

	event.RabbitMQSubscribe([]event.RabbitMQSubscribeListener{
		{
			Queue:   event.QueueNotifications,
			Channel: listener.NotificationsChannel,
		},
		{
			Queue:   event.QueueNews,
			Channel: listener.NewsChannel,
		},
	})

	// Init event logs
	event.Init()

	ctx, cancel := context.WithCancel(context.Background())

	backend := realtime.NewGormBackend(database.Postgres, database.Redis[2])
	go backend.RunTypingCleanup(ctx)

	manager := security.NewManager(database.Postgres)
	go manager.RunHeartbeat(ctx, nil)

	controller.Init(manager, backend)

	socket := socketio.Init(rest)

	router.Rest(rest)
	router.Socket(socket, backend)
	go router.Feed(ctx, backend, socketio.Broadcast, socketio.Emit)

	go rest.Listen(fmt.Sprintf(":%s", config.Config("SERVER_PORT")))

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	cancel()
	socket.Close(nil)
	event.RabbitMQClose()
	os.Exit(0)
}
