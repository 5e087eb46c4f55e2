package main

import (
	"context"

	"billify.site/internal/auth"
	"billify.site/internal/user"
	"billify.site/pkg/billify"
)

type welcome struct {
	Message string `json:"message"`
}

func main() {
	app := billify.New()

	c := app.Container()

	store := user.NewStore(c.Mongo)
	if err := store.EnsureIndexes(context.Background()); err != nil {
		app.Logger().Errorf("could not create indexes: %v", err)
	}

	tokens := auth.NewTokenIssuer(c.Settings.JWTAccessSecret, auth.AccessTokenTTL)

	app.GET("/api/v1/test", func(*billify.Context) (any, error) {
		return welcome{Message: "Welcome to the Billify API"}, nil
	})

	auth.Routes(app, auth.New(store, c.Mailer, tokens, c.Settings.Domain))

	app.Run()
}
