/*
Package container holds the application-level concerns shared by every handler: the
logger, the metrics registry, the MongoDB connection and the mail sender.
*/
package container

import (
	"context"
	"time"

	"billify.site/pkg/billify/config"
	"billify.site/pkg/billify/datasource/mongo"
	"billify.site/pkg/billify/logging"
	"billify.site/pkg/billify/mail"
	"billify.site/pkg/billify/metrics"
)

const connectTimeout = 10 * time.Second

// Container is a collection of all common application level concerns.
type Container struct {
	logging.Logger

	Settings *config.Settings

	metricsManager metrics.Manager

	Mongo  *mongo.Client
	Mailer mail.Sender
}

// NewContainer wires the datasources described by settings. Connection failures are
// logged and reported by Health rather than stopping the service.
func NewContainer(settings *config.Settings, logger logging.Logger) *Container {
	c := &Container{
		Logger:   logger,
		Settings: settings,
	}

	c.metricsManager = metrics.NewMetricsManager(logger)
	metrics.RegisterFrameworkMetrics(c.metricsManager)

	c.Mongo = mongo.New(mongo.Config{URI: settings.MongoURI, Database: settings.DBName, ConnectTimeout: connectTimeout})
	c.Mongo.UseLogger(logger)
	c.Mongo.UseMetrics(c.metricsManager)

	if err := c.Mongo.Connect(context.Background()); err != nil {
		c.Errorf("could not connect to MongoDB: %v", err)
	}

	c.Mailer = mail.NewNopSender(logger)

	client, err := mail.NewSMTPClient(mail.SMTPConfig{
		Host:     settings.SMTPHost,
		Port:     settings.SMTPPort,
		Username: settings.SMTPUsername,
		Password: settings.SMTPPassword,
	})
	if err != nil {
		c.Errorf("could not create SMTP client: %v", err)
		return c
	}

	mailer, err := mail.NewMailer(settings.SenderEmail, client, logger, c.metricsManager)
	if err != nil {
		c.Errorf("could not load email templates: %v", err)
		return c
	}

	c.Mailer = mailer

	return c
}

func (c *Container) Metrics() metrics.Manager {
	return c.metricsManager
}

// Health reports the state of every datasource.
func (c *Container) Health(ctx context.Context) map[string]any {
	status := mongo.StatusUp

	db := c.Mongo.HealthCheck(ctx)
	if db.Status != mongo.StatusUp {
		status = mongo.StatusDown
	}

	return map[string]any{
		"status": status,
		"mongo":  db,
	}
}

// Close releases the datasource connections.
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	return c.Mongo.Close(ctx)
}
