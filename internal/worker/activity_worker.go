package worker

import (
	"github.com/faraddouglas/conecsa-api/internal/service"
)

// StartActivityWorker registers the auth activity handlers on the dispatcher.
func StartActivityWorker(activityService *service.ActivityService) {
	if activityService == nil {
		return
	}
	activityService.RegisterHandlers()
}
