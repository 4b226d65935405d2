package worker

import "github.com/spec-kit/helpdesk-service/internal/service"

// StartNotificationWorker hooks the notification sinks into the query
// event stream. Delivery currently runs synchronously with
// publication; a queued consumer can replace this registration without
// touching the services that publish.
func StartNotificationWorker(notifications *service.NotificationService) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}
