package services

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	switch os.Getenv("APP_ENV") {
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	case "test":
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}
