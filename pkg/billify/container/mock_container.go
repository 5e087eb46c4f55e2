package container

import (
	"billify.site/pkg/billify/config"
	"billify.site/pkg/billify/datasource/mongo"
	"billify.site/pkg/billify/logging"
	"billify.site/pkg/billify/mail"
	"billify.site/pkg/billify/metrics"
)

// NewMockContainer builds a Container without opening any connection. The MongoDB client
// is left unconnected and emails are dropped, so tests replace the parts they need.
func NewMockContainer(settings *config.Settings, logger logging.Logger) *Container {
	c := &Container{
		Logger:   logger,
		Settings: settings,
	}

	c.metricsManager = metrics.NewMetricsManager(logger)
	metrics.RegisterFrameworkMetrics(c.metricsManager)

	c.Mongo = mongo.New(mongo.Config{URI: settings.MongoURI, Database: settings.DBName})
	c.Mongo.UseLogger(logger)
	c.Mongo.UseMetrics(c.metricsManager)

	c.Mailer = mail.NewNopSender(logger)

	return c
}
