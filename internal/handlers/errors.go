package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

func respondWithError(w http.ResponseWriter, log logrus.FieldLogger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.WithError(err).WithField("status", status).Error(logMsg)
	}

	http.Error(w, userMsg, status)
}
